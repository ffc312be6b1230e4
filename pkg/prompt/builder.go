package prompt

import (
	"strings"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// Builder constructs generation prompts from speaker-labeled transcripts.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// Params defines inputs for a document prompt.
type Params struct {
	Segments       []models.Segment
	DocumentType   string
	PatientContext string
}

const preamble = `Você é um assistente especializado em documentação clínica.
Analise a transcrição de consulta abaixo e produza o documento solicitado, no idioma da transcrição.`

var templates = map[string]string{
	models.DocumentSOAP: `Gere uma nota SOAP estruturada seguindo estritamente o formato:

SUBJETIVO:
[Queixas principais, histórico e sintomas relatados pelo paciente]

OBJETIVO:
[Observações clínicas, sinais vitais, achados de exame físico]

AVALIAÇÃO:
[Hipóteses diagnósticas e análise dos achados]

PLANO:
[Tratamentos, medicações, exames e encaminhamentos]`,

	models.DocumentVintra: `Realize uma análise VINTRA (Visualização INtegrativa TRAjetorial) completa com as seções:

1. DIMENSÕES PSICOLÓGICAS
- Cognitivas, afetivas e comportamentais

2. PADRÕES COMUNICACIONAIS
- Dinâmica médico-paciente e qualidade da troca de informações

3. TRAJETÓRIA DIMENSIONAL
- Estado atual, evolução relatada e projeção

4. RECOMENDAÇÕES INTEGRATIVAS
- Pontos de atenção, estratégias e metas terapêuticas`,

	models.DocumentIpsissima: `Realize uma análise Ipsissima Verba (palavras exatas do paciente) com as seções:

1. ELEMENTOS LINGUÍSTICOS RELEVANTES
- Escolhas lexicais, padrões de fala e expressões carregadas de emoção

2. NARRATIVA DO PACIENTE
- Construção do relato, elementos temporais e autopercepção

3. INTERAÇÃO CLÍNICA
- Momentos-chave do diálogo e negociação de significados

4. INSIGHTS CLÍNICOS
- Aspectos subjetivos e recomendações baseadas no discurso`,

	models.DocumentGeneral: `Gere uma análise geral da consulta incluindo:

1. Principais queixas e sintomas
2. Diagnósticos considerados
3. Recomendações e tratamentos propostos
4. Elementos importantes da interação médico-paciente`,
}

var aliases = map[string]string{
	"":                       models.DocumentGeneral,
	"initial":                models.DocumentGeneral,
	"narrative":              models.DocumentGeneral,
	models.DocumentGeneral:   models.DocumentGeneral,
	models.DocumentSOAP:      models.DocumentSOAP,
	models.DocumentVintra:    models.DocumentVintra,
	models.DocumentIpsissima: models.DocumentIpsissima,
	"ipissima":               models.DocumentIpsissima,
}

// Resolve maps a requested document type to the template that will be used.
// Unrecognized types resolve to the general template.
func (b Builder) Resolve(documentType string) string {
	if t, ok := aliases[strings.ToLower(strings.TrimSpace(documentType))]; ok {
		return t
	}
	return models.DocumentGeneral
}

// Build returns the full prompt for p. Segments are rendered one per line as
// "[speaker]: text", in order.
func (b Builder) Build(p Params) string {
	var sb strings.Builder

	sb.WriteString(preamble)
	sb.WriteString("\n\nTranscrição:\n")
	sb.WriteString(b.Transcript(p.Segments))
	sb.WriteString("\n")

	if ctx := strings.TrimSpace(p.PatientContext); ctx != "" {
		sb.WriteString("\nContexto do paciente:\n")
		sb.WriteString(ctx)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(templates[b.Resolve(p.DocumentType)])
	return sb.String()
}

// Transcript renders segments as "[speaker]: text" lines joined by newlines.
func (b Builder) Transcript(segments []models.Segment) string {
	lines := make([]string, len(segments))
	for i, s := range segments {
		lines[i] = "[" + s.Speaker + "]: " + s.Text
	}
	return strings.Join(lines, "\n")
}
