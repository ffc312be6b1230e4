package prompt

import (
	"strings"
	"testing"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

func sampleSegments() []models.Segment {
	return []models.Segment{
		{Speaker: "doctor", Text: "Bom dia"},
		{Speaker: "patient", Text: "Estou com dor"},
	}
}

func TestResolve(t *testing.T) {
	b := Builder{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "soap", input: "soap", expected: models.DocumentSOAP},
		{name: "vintra upper case", input: "VINTRA", expected: models.DocumentVintra},
		{name: "ipsissima", input: "ipsissima", expected: models.DocumentIpsissima},
		{name: "legacy ipissima spelling", input: "ipissima", expected: models.DocumentIpsissima},
		{name: "initial is general", input: "initial", expected: models.DocumentGeneral},
		{name: "narrative is general", input: "narrative", expected: models.DocumentGeneral},
		{name: "empty is general", input: "", expected: models.DocumentGeneral},
		{name: "unknown falls back", input: "unknown_type", expected: models.DocumentGeneral},
		{name: "whitespace trimmed", input: "  soap ", expected: models.DocumentSOAP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Resolve(tt.input); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuild_TranscriptLines(t *testing.T) {
	out := Builder{}.Build(Params{Segments: sampleSegments(), DocumentType: "soap"})

	if !strings.Contains(out, "[doctor]: Bom dia\n[patient]: Estou com dor") {
		t.Errorf("transcript lines missing or out of order:\n%s", out)
	}
}

func TestBuild_TemplatePerType(t *testing.T) {
	tests := []struct {
		docType string
		marker  string
	}{
		{"soap", "SUBJETIVO:"},
		{"vintra", "DIMENSÕES PSICOLÓGICAS"},
		{"ipsissima", "Ipsissima Verba"},
		{"general", "análise geral"},
		{"unknown_type", "análise geral"},
	}

	for _, tt := range tests {
		t.Run(tt.docType, func(t *testing.T) {
			out := Builder{}.Build(Params{Segments: sampleSegments(), DocumentType: tt.docType})
			if !strings.Contains(out, tt.marker) {
				t.Errorf("expected %q in prompt for %q", tt.marker, tt.docType)
			}
		})
	}
}

func TestBuild_SOAPHasFourSections(t *testing.T) {
	out := Builder{}.Build(Params{DocumentType: "soap"})
	for _, section := range []string{"SUBJETIVO:", "OBJETIVO:", "AVALIAÇÃO:", "PLANO:"} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %s", section)
		}
	}
}

func TestBuild_PatientContext(t *testing.T) {
	out := Builder{}.Build(Params{
		Segments:       sampleSegments(),
		DocumentType:   "vintra",
		PatientContext: "Paciente com histórico de lombalgia",
	})
	if !strings.Contains(out, "Contexto do paciente:\nPaciente com histórico de lombalgia") {
		t.Errorf("patient context missing:\n%s", out)
	}
}

func TestBuild_NoPatientContextSection(t *testing.T) {
	out := Builder{}.Build(Params{Segments: sampleSegments(), PatientContext: "   "})
	if strings.Contains(out, "Contexto do paciente") {
		t.Error("blank patient context should be omitted")
	}
}

func TestBuild_EmptyTranscriptStillWellFormed(t *testing.T) {
	out := Builder{}.Build(Params{DocumentType: "general"})
	if !strings.Contains(out, "Transcrição:") || !strings.Contains(out, "análise geral") {
		t.Errorf("empty transcript prompt malformed:\n%s", out)
	}
}

func TestBuild_DoesNotMutateSegments(t *testing.T) {
	segs := sampleSegments()
	_ = Builder{}.Build(Params{Segments: segs, DocumentType: "soap"})
	if segs[0].Text != "Bom dia" || segs[1].Speaker != "patient" {
		t.Error("segments were mutated")
	}
}

func TestTranscript(t *testing.T) {
	got := Builder{}.Transcript(sampleSegments())
	if got != "[doctor]: Bom dia\n[patient]: Estou com dor" {
		t.Errorf("unexpected transcript: %q", got)
	}
	if (Builder{}).Transcript(nil) != "" {
		t.Error("empty transcript should render as empty string")
	}
}
