package fuzztests

import (
	"context"
	"testing"

	"weave/internal/dialect"
	"weave/internal/source"
	"weave/internal/tag/jsp"
	"weave/internal/testkit"
	"weave/internal/translate"
)

func FuzzTranslate(f *testing.F) {
	addCorpusSeeds(f)
	lib, err := jsp.NewLibrary(dialect.Java{})
	if err != nil {
		f.Fatal(err)
	}
	tr := translate.New(translate.Options{MaxDiagnostics: 64, ReportUnknownTags: true})
	tr.SetRegistry(lib)

	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		doc := source.NewVirtualFile("fuzz.jsp", append([]byte(nil), input...))
		res, err := tr.TranslateFile(context.Background(), doc)
		if err != nil {
			t.Fatalf("translate: %v", err)
		}
		if err := testkit.CheckResultInvariants(res, doc); err != nil {
			t.Fatal(err)
		}
	})
}
