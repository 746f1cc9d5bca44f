package handlers

import (
	"github.com/feichai0017/document-condenser/internal/service/document"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
	Process  *ProcessHandler
	Health   *HealthHandler
}

func NewHandlers(
	documentService document.DocumentProcessor,
	condenser Condenser,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(documentService, log),
		Process:  NewProcessHandler(condenser, log),
		Health:   NewHealthHandler(),
	}
}
