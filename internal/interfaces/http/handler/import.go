package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/application/importer"
	appreturns "github.com/returns/backend/internal/application/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/spreadsheet"
	"github.com/returns/backend/internal/interfaces/http/dto"
)

// ImportConfig carries the tunables the import endpoints need
type ImportConfig struct {
	// SourceCustomer, when set, marks sheets whose customer column holds
	// the supplier: the value moves to destinationCustomer and the
	// customer is forced to this name.
	SourceCustomer string
	// MaxRows caps the number of sheet rows a single upload may carry
	MaxRows int
	// MaxFileSize caps the uploaded workbook size in bytes
	MaxFileSize int64
	// RequireForcePin gates the forceUpdate policy behind a supervisor PIN
	RequireForcePin bool
}

// ImportHandler handles spreadsheet import API endpoints
type ImportHandler struct {
	BaseHandler
	service *appreturns.Service
	authz   auth.Authorizer
	cfg     ImportConfig
	logger  *zap.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service *appreturns.Service, authz auth.Authorizer, cfg ImportConfig, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{service: service, authz: authz, cfg: cfg, logger: logger}
}

// RegisterRoutes registers import routes on the API group
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("/preview", h.Preview)
		imports.POST("", h.Commit)
	}
}

// reconcile parses the uploaded workbook and classifies each row against
// the live snapshot.
func (h *ImportHandler) reconcile(c *gin.Context) ([]importer.Candidate, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Upload must carry a spreadsheet under the \"file\" field")
		return nil, false
	}
	defer file.Close()

	if h.cfg.MaxFileSize > 0 && header.Size > h.cfg.MaxFileSize {
		h.HandleError(c, shared.NewDomainError("REQUEST_TOO_LARGE",
			"Uploaded file exceeds the size limit"))
		return nil, false
	}

	grid, err := spreadsheet.Load(file)
	if err != nil {
		h.BadRequest(c, "Could not read the workbook: "+err.Error())
		return nil, false
	}
	if h.cfg.MaxRows > 0 && len(grid) > h.cfg.MaxRows {
		h.HandleError(c, shared.NewDomainError("INVALID_INPUT",
			"Sheet exceeds the row limit for one upload"))
		return nil, false
	}

	opts := importer.Options{}
	if c.PostForm("sourceCustomer") == "true" {
		opts.SourceCustomer = h.cfg.SourceCustomer
	}
	reconciler := importer.NewReconciler(opts, h.logger)

	candidates, err := reconciler.Reconcile(grid, h.service.ListRecords())
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return candidates, true
}

// Preview classifies the uploaded sheet without writing anything
func (h *ImportHandler) Preview(c *gin.Context) {
	candidates, ok := h.reconcile(c)
	if !ok {
		return
	}
	h.Success(c, dto.NewImportPreviewResponse(candidates))
}

// Commit reconciles the uploaded sheet, resolves conflicts with the given
// policy, and writes the batch. Without a policy, a sheet carrying
// conflicts comes back as a 409 preview instead of a partial write.
func (h *ImportHandler) Commit(c *gin.Context) {
	candidates, ok := h.reconcile(c)
	if !ok {
		return
	}

	policy := importer.Policy(c.PostForm("policy"))
	if policy == importer.PolicyForceUpdate && h.cfg.RequireForcePin {
		if !h.authz.Authorize(auth.ActionForceImport, supervisorPin(c, c.PostForm("pin"))) {
			h.HandleError(c, shared.ErrUnauthorized)
			return
		}
	}

	if policy == "" {
		for _, cand := range candidates {
			if cand.Class.Conflicting() {
				resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeValidationRejected,
					"Sheet carries conflicting rows; pick a policy and retry", getRequestID(c))
				resp.Data = dto.NewImportPreviewResponse(candidates)
				c.JSON(dto.GetHTTPStatus(dto.ErrCodeValidationRejected), resp)
				return
			}
		}
	} else {
		resolved, err := importer.ApplyPolicy(candidates, policy, h.service.ListRecords())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		candidates = resolved
	}

	result, err := h.service.CommitImport(c.Request.Context(), candidates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ImportCommitResponse{
		Created: result.Created,
		Updated: result.Updated,
		Skipped: result.Skipped,
	})
}
