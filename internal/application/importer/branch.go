package importer

import (
	"regexp"
	"strings"
)

// Branch coverage areas of the logistics network.
const (
	branchLampang     = "EKP ลำปาง"
	branchChiangMai   = "เชียงใหม่"
	branchMaeSot      = "แม่สอด"
	branchKamphaeng   = "กำแพงเพชร"
	branchPhitsanulok = "พิษณุโลก"
	branchNakhonSawan = "นครสวรรค์"
)

var (
	provincePattern = regexp.MustCompile(`(?:จ\.|จังหวัด)\s*([^\s0-9]+)`)
	districtPattern = regexp.MustCompile(`(?:อ\.|อำเภอ)\s*([^\s0-9]+)`)
)

// BranchRule maps address evidence onto the branch serving it. Province
// keywords are matched against the extracted province and district keywords
// against the extracted district; the loose fallback pass matches both
// against the whole address. Rules are evaluated in order, first match
// wins.
type BranchRule struct {
	Provinces []string
	// Districts, when non-empty, must also match.
	Districts []string
	Branch    string
}

func (r BranchRule) matches(province, district string) bool {
	if !containsAny(province, r.Provinces) {
		return false
	}
	return len(r.Districts) == 0 || containsAny(district, r.Districts)
}

// DefaultBranchRules is the shipped coverage map of Thai provinces (and
// district exceptions) onto branches. Order matters: the Mae Sot and Lom
// Sak rules sit above the province-wide rules they carve out of. The
// bare Mae Sot rule exists for the loose pass, where a district mention
// without its province is still unambiguous.
func DefaultBranchRules() []BranchRule {
	return []BranchRule{
		{Provinces: []string{"ลำปาง", "เชียงราย", "แพร่", "น่าน"}, Branch: branchLampang},
		{Provinces: []string{"เชียงใหม่", "ลำพูน", "พะเยา", "แม่ฮ่องสอน"}, Branch: branchChiangMai},
		{Provinces: []string{"ตาก"}, Districts: []string{"แม่สอด"}, Branch: branchMaeSot},
		{Provinces: []string{"แม่สอด"}, Branch: branchMaeSot},
		{Provinces: []string{"กำแพงเพชร", "ตาก"}, Branch: branchKamphaeng},
		{Provinces: []string{"พิษณุโลก", "สุโขทัย", "อุตรดิตถ์"}, Branch: branchPhitsanulok},
		{Provinces: []string{"เพชรบูรณ์"}, Districts: []string{"หล่มสัก", "หล่มเก่า"}, Branch: branchPhitsanulok},
		{Provinces: []string{"นครสวรรค์", "ชัยนาท", "อุทัยธานี", "พิจิตร", "เพชรบูรณ์"}, Branch: branchNakhonSawan},
	}
}

// InferBranch resolves the serving branch from a free-text Thai address.
// The strict pass works on the extracted province and district; when that
// yields nothing, the loose pass re-runs the rules over the whole address.
// Returns "" when no rule matches.
func InferBranch(rules []BranchRule, address string) string {
	if address == "" {
		return ""
	}

	var province, district string
	if m := provincePattern.FindStringSubmatch(address); len(m) > 1 {
		province = strings.TrimSpace(m[1])
	}
	if m := districtPattern.FindStringSubmatch(address); len(m) > 1 {
		district = strings.TrimSpace(m[1])
	}

	if province != "" {
		for _, r := range rules {
			if r.matches(province, district) {
				return r.Branch
			}
		}
	}
	for _, r := range rules {
		if r.matches(address, address) {
			return r.Branch
		}
	}
	return ""
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
