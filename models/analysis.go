package models

// AnalysisRequest is the input of one submission
type AnalysisRequest struct {
	Topic         string
	Law           DocumentSet
	Doctrine      DocumentSet
	Jurisprudence DocumentSet
}

// JurisprudenceEntry is one court decision attached to an article
type JurisprudenceEntry struct {
	Court            string `json:"court"`
	CentralThesis    string `json:"centralThesis"`
	ObjectiveSummary string `json:"objectiveSummary"`
}

// LegalArticle is one statute article with its pertinent commentary and case law.
// Doctrine and Jurisprudence are empty when the sources had nothing relevant.
type LegalArticle struct {
	Number        string               `json:"number"`
	StatuteText   string               `json:"statuteText"`
	Doctrine      string               `json:"doctrine,omitempty"`
	Jurisprudence []JurisprudenceEntry `json:"jurisprudence"`
}

// AnalysisResult is the study sheet returned by the reasoning service
type AnalysisResult struct {
	LawName  string         `json:"lawName"`
	Articles []LegalArticle `json:"articles"`
}

// ServiceRequest is a fully composed request for the reasoning service
type ServiceRequest struct {
	Model            string
	Instruction      string
	Documents        []EncodedFile
	Schema           *SchemaNode
	ResponseMIMEType string
	ThinkingBudget   int32
}
