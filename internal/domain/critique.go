package domain

// IssueCategory groups critique issues for advice and refinement instructions.
type IssueCategory string

const (
	IssueCategoryScope     IssueCategory = "scope"
	IssueCategoryLength    IssueCategory = "length"
	IssueCategoryTechnical IssueCategory = "technical"
	IssueCategoryStructure IssueCategory = "structure"
	IssueCategoryContext   IssueCategory = "context"
)

// Issue is a human-readable tag for a triggered critique penalty.
type Issue string

const (
	IssueScopeNotAcknowledged Issue = "no reconoce que la consulta está fuera de ámbito"
	IssueTooShort             Issue = "respuesta muy corta"
	IssueTooLong              Issue = "respuesta podría ser más concisa"
	IssueMissingTechnical     Issue = "falta contenido técnico específico"
	IssueUnstructured         Issue = "podría mejorar la estructura con listas o puntos"
	IssueOffTopic             Issue = "no aborda completamente la pregunta"
)

// Category returns the issue category.
func (i Issue) Category() IssueCategory {
	switch i {
	case IssueScopeNotAcknowledged:
		return IssueCategoryScope
	case IssueTooShort, IssueTooLong:
		return IssueCategoryLength
	case IssueMissingTechnical:
		return IssueCategoryTechnical
	case IssueUnstructured:
		return IssueCategoryStructure
	default:
		return IssueCategoryContext
	}
}

// CritiqueReport is the heuristic quality assessment of one draft.
type CritiqueReport struct {
	Score             float64 `json:"score"`
	Issues            []Issue `json:"issues"`
	Advice            string  `json:"advice"`
	ContextMatchRatio float64 `json:"context_match_ratio"`
}

// HasCategory reports whether any issue belongs to the category.
func (c CritiqueReport) HasCategory(cat IssueCategory) bool {
	for _, i := range c.Issues {
		if i.Category() == cat {
			return true
		}
	}
	return false
}
