package service

import (
	"fmt"
	"strings"

	"legaltriad-backend/models"
)

// PromptProfile is a tunable variant of the instruction block. All profiles
// target the same output schema.
type PromptProfile struct {
	Name           string
	ThinkingBudget int32
	template       string // %[1]s is replaced by the topic
}

var promptProfiles = map[string]PromptProfile{
	"delta": {
		Name:           "delta",
		ThinkingBudget: 12000,
		template: `VOCÊ É UM ANALISTA JURÍDICO ESPECIALISTA EM CARREIRAS POLICIAIS (DELEGADO).
O TEMA CENTRAL DESTE ESTUDO É: "%[1]s"

INTEGRE AS TRÊS FONTES ENVIADAS (LEI, DOUTRINA E JURISPRUDÊNCIA) SEGUINDO ESTAS REGRAS:

1. FILTRAGEM TEMÁTICA: os arquivos de doutrina e jurisprudência podem tratar de vários temas. Analise cada parágrafo e mantenha APENAS o que for pertinente ao tema "%[1]s". Descarte o restante.

2. MAPEAMENTO POR ARTIGO: use o texto da lei como estrutura, percorrendo os artigos na ordem em que aparecem. Para cada artigo:
   - transcreva o texto original em "statuteText";
   - adicione em "doctrine" a doutrina pertinente, com foco no que é cobrado em provas para Delegado;
   - adicione em "jurisprudence" os julgados (STF/STJ) com relação direta com o artigo ou com o tema "%[1]s".

3. SEM INVENÇÃO: se não houver jurisprudência pertinente no material enviado para um artigo, deixe "jurisprudence" como lista vazia. Não invente dados.

RETORNE APENAS O JSON, SEM TEXTO EXPLICATIVO.`,
	},
	"concise": {
		Name:           "concise",
		ThinkingBudget: 4096,
		template: `Tema do estudo: "%[1]s".
Regras:
1. Filtragem temática: descarte todo parágrafo de doutrina ou jurisprudência que não trate do tema "%[1]s".
2. Mapeamento por artigo: siga os artigos da lei na ordem em que aparecem e anexe a cada um a doutrina e a jurisprudência pertinentes.
3. Sem invenção: quando não houver jurisprudência pertinente, "jurisprudence" deve ser uma lista vazia.
Responda somente com o JSON.`,
	},
}

// LookupPromptProfile returns the named profile
func LookupPromptProfile(name string) (PromptProfile, error) {
	p, ok := promptProfiles[name]
	if !ok {
		return PromptProfile{}, fmt.Errorf("unknown prompt profile: %s", name)
	}
	return p, nil
}

// Composer builds reasoning service requests
type Composer struct {
	model   string
	profile PromptProfile
	schema  *models.SchemaNode
}

// NewComposer creates a composer for the given model and prompt profile
func NewComposer(model string, profile PromptProfile) *Composer {
	return &Composer{
		model:   model,
		profile: profile,
		schema:  models.AnalysisResultSchema(),
	}
}

// Compose validates the submission and builds the single request sent for it.
// Documents are attached law first, then doctrine, then jurisprudence, each
// in the order they were added.
func (c *Composer) Compose(topic string, law, doctrine, jurisprudence models.DocumentSet) (*models.ServiceRequest, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, validationError("topic is required to filter doctrine and case law")
	}
	if len(law) == 0 {
		return nil, validationError("law document is required")
	}

	docs := make([]models.EncodedFile, 0, len(law)+len(doctrine)+len(jurisprudence))
	docs = append(docs, law...)
	docs = append(docs, doctrine...)
	docs = append(docs, jurisprudence...)

	return &models.ServiceRequest{
		Model:            c.model,
		Instruction:      c.Instruction(topic),
		Documents:        docs,
		Schema:           c.schema,
		ResponseMIMEType: "application/json",
		ThinkingBudget:   c.profile.ThinkingBudget,
	}, nil
}

// Instruction renders the instruction block for a topic
func (c *Composer) Instruction(topic string) string {
	return fmt.Sprintf(c.profile.template, topic)
}
