package importer

import (
	"regexp"
	"strings"
)

// fieldAliases maps each candidate field to the header spellings seen in the
// wild, Thai and English. Matching is done on the normalized form, so
// spacing, case, dots, dashes and underscores do not matter.
var fieldAliases = map[string][]string{
	"documentNo": {"doc_no", "docNo", "r_no", "rNo", "เลขที่เอกสาร", "เลขที่ใบรับคืน", "document_no", "documentNo", "rnumber", "returnno", "refno", "reference"},
	"date":       {"date", "วันที่", "วันที่เอกสาร", "dateofdoc"},

	"customerCode":        {"soldto_id", "customer_code", "รหัสลูกค้า", "custcode", "customercode"},
	"customerName":        {"soldto_name", "customer_name", "ชื่อลูกค้า", "customer", "custname", "shopname", "ชื่อร้านค้า", "ร้านค้า"},
	"destinationCustomer": {"shipto_name", "destination", "ลูกค้าปลายทาง", "สถานที่ส่ง", "ปลายทาง", "shiptoname", "receiver"},
	"customerAddress":     {"shipto_address", "address", "ที่อยู่", "สถานที่จัดส่ง", "shiptoaddress", "deliveryaddress"},

	"productCode": {"sku_id", "product_code", "รหัสสินค้า", "itemcode", "material", "partno"},
	"productName": {"sku_name", "product_name", "ชื่อสินค้า", "รายการสินค้า", "itemname", "description", "materialdescription", "product", "สินค้า", "รายการ"},
	"quantity":    {"total_qty", "qty", "quantity", "จำนวน", "amount", "total"},
	"unit":        {"unit", "หน่วย", "uom"},

	"tmNo":        {"transportmanifest_no", "transportmanifestno", "tm_no", "tmno", "tm", "เลขที่ใบคุม", "เลขที่ tm", "manifresh", "manifest"},
	"controlDate": {"doc_date", "transportmanifest_date", "tm_date", "control_date", "วันที่ใบคุม", "วันที่ขนส่ง", "dateoftm"},

	"notes": {"comment", "tmnotes", "notes", "remark", "หมายเหตุ", "remarks", "note"},
}

var normalizePattern = regexp.MustCompile(`[\s_.\-]`)

// normalizeHeader strips spacing and separators and lowercases, so
// "Doc No.", "doc_no" and "DOC-NO" all collide.
func normalizeHeader(s string) string {
	return normalizePattern.ReplaceAllString(strings.ToLower(s), "")
}

// headerBuckets are the keyword groups used to locate the header row. A row
// whose joined text hits at least one bucket is taken as the header.
var headerBuckets = [][]string{
	{"doc", "r no", "เลขที่"},
	{"cust", "ลูกค้า", "sold"},
	{"product", "item", "สินค้า", "sku"},
	{"qty", "จำนวน"},
}

func headerScore(joined string) int {
	score := 0
	for _, bucket := range headerBuckets {
		for _, kw := range bucket {
			if strings.Contains(joined, kw) {
				score++
				break
			}
		}
	}
	return score
}
