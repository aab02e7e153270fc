package corpus

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tmxSample = `<?xml version="1.0" encoding="UTF-8" ?>
<tmx version="1.4">
<header srclang="en" adminlang="en-us" o-tmf="unknown" segtype="sentence" creationtool="Uplug" creationtoolversion="unknown" datatype="PlainText" />
  <body>
    <tu>
      <tuv xml:lang="en"><seg>Hello</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour</seg></tuv>
    </tu>
    <tu>
      <tuv xml:lang="en"><seg>Thank you</seg></tuv>
      <tuv xml:lang="fr"><seg>Merci</seg></tuv>
    </tu>
  </body>
</tmx>`

func newTMX(in string, limits Limits) *TMXParser {
	return NewTMXParser("en", "fr", strings.NewReader(in), limits)
}

func TestTMXParser_Basic(t *testing.T) {
	p := newTMX(tmxSample, DefaultLimits())
	pairs := drain(t, p)
	require.Equal(t, []Pair{
		{Source: "Hello", Target: "Bonjour"},
		{Source: "Thank you", Target: "Merci"},
	}, pairs)
	assert.Empty(t, p.SkippedRecords())
}

func TestTMXParser_Empty(t *testing.T) {
	// The original parser accepts a bare <tmx></tmx> without header or body.
	p := newTMX("<tmx></tmx>", DefaultLimits())
	assert.Empty(t, drain(t, p))
}

func TestTMXParser_LocaleMatchingIgnoresRegion(t *testing.T) {
	in := `<tmx>
<header srclang="en-US" />
  <body>
    <tu>
      <tuv xml:lang="en-GB"><seg>Colour</seg></tuv>
      <tuv xml:lang="fr-CA"><seg>Couleur</seg></tuv>
    </tu>
  </body>
</tmx>`
	p := newTMX(in, DefaultLimits())
	pairs := drain(t, p)
	require.Equal(t, []Pair{{Source: "Colour", Target: "Couleur"}}, pairs)
}

func TestTMXParser_MultipleSegsSpaceJoined(t *testing.T) {
	in := `<tmx>
<header srclang="en" />
  <body>
    <tu>
      <tuv xml:lang="en"><seg> Good </seg><seg>morning </seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour</seg></tuv>
    </tu>
  </body>
</tmx>`
	p := newTMX(in, DefaultLimits())
	pairs := drain(t, p)
	require.Equal(t, []Pair{{Source: "Good morning", Target: "Bonjour"}}, pairs)
}

func TestTMXParser_NestedMarkupInsideSeg(t *testing.T) {
	// Unrecognized tags are skipped but their text still counts.
	in := `<tmx>
<header srclang="en" />
  <body>
    <tu>
      <tuv xml:lang="en"><seg>Good <hi>morning</hi> world</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour <hi>le</hi> monde</seg></tuv>
    </tu>
  </body>
</tmx>`
	p := newTMX(in, DefaultLimits())
	pairs := drain(t, p)
	require.Equal(t, []Pair{{Source: "Good morning world", Target: "Bonjour le monde"}}, pairs)
}

func TestTMXParser_SkipsUnrecognizedElements(t *testing.T) {
	in := `<tmx>
<header srclang="en" />
  <body>
    <note>ignore me</note>
    <tu>
      <prop type="x">meta</prop>
      <tuv xml:lang="en"><seg>Hello</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour</seg></tuv>
    </tu>
  </body>
</tmx>`
	p := newTMX(in, DefaultLimits())
	pairs := drain(t, p)
	require.Equal(t, []Pair{{Source: "Hello", Target: "Bonjour"}}, pairs)
}

func TestTMXParser_InvalidTagStructure(t *testing.T) {
	p := newTMX(`<tmx><tu></tu></tmx>`, DefaultLimits())
	_, err := p.Next()

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "TMX", fe.Format)
	assert.Equal(t, 1, fe.Line)
	assert.Contains(t, fe.Message, "invalid tag structure")
	assert.Contains(t, fe.Message, "<tu> should go inside <body>")
}

func TestTMXParser_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		message string
	}{
		{
			"duplicate header",
			`<tmx><header srclang="en" /><header srclang="en" /></tmx>`,
			"duplicate header tag",
		},
		{
			"duplicate body",
			`<tmx><header srclang="en" /><body></body><body></body></tmx>`,
			"duplicate body tag",
		},
		{
			"body before header",
			`<tmx><body></body></tmx>`,
			"header tag should come before the body tag",
		},
		{
			"seg outside tuv",
			`<tmx><header srclang="en" /><body><tu><seg>text</seg></tu></body></tmx>`,
			"invalid tag structure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTMX(tt.in, DefaultLimits())
			var err error
			for err == nil {
				_, err = p.Next()
			}
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe.Message, tt.message)
		})
	}
}

func TestTMXParser_MalformedXML(t *testing.T) {
	p := newTMX(`<tmx><header srclang="en" /><body><tu></body></tmx>`, DefaultLimits())
	var err error
	for err == nil {
		_, err = p.Next()
	}
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "TMX", fe.Format)
}

func TestTMXParser_TruncatedDocument(t *testing.T) {
	p := newTMX(`<tmx><header srclang="en" /><body><tu>`, DefaultLimits())
	var err error
	for err == nil {
		_, err = p.Next()
	}
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.NotErrorIs(t, err, ErrEndOfStream)
}

func TestTMXParser_HeaderLanguageMismatch(t *testing.T) {
	in := `<tmx>
<header srclang="de" />
  <body></body>
</tmx>`
	p := newTMX(in, DefaultLimits())
	_, err := p.Next()

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "doesn't match")
	assert.Contains(t, fe.Message, "expecting en, found de")
}

func TestTMXParser_HeaderWithoutSrclangTolerated(t *testing.T) {
	in := `<tmx>
<header />
  <body>
    <tu>
      <tuv xml:lang="en"><seg>Hello</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour</seg></tuv>
    </tu>
  </body>
</tmx>`
	p := newTMX(in, DefaultLimits())
	require.Equal(t, []Pair{{Source: "Hello", Target: "Bonjour"}}, drain(t, p))
}

func tmxWithTU(tuvs string) string {
	return fmt.Sprintf(`<tmx>
<header srclang="en" />
  <body>
    <tu>
%s
    </tu>
  </body>
</tmx>`, tuvs)
}

func TestTMXParser_MissingSentences_FatalByDefault(t *testing.T) {
	tests := []struct {
		name    string
		tuvs    string
		message string
	}{
		{
			"neither language present",
			`<tuv xml:lang="de"><seg>Hallo</seg></tuv><tuv xml:lang="it"><seg>Ciao</seg></tuv>`,
			"no sentence found in source and target languages in this <tu>",
		},
		{
			"source missing",
			`<tuv xml:lang="de"><seg>Hallo</seg></tuv><tuv xml:lang="fr"><seg>Bonjour</seg></tuv>`,
			"no sentence found in source language in this <tu>",
		},
		{
			"target missing",
			`<tuv xml:lang="en"><seg>Hello</seg></tuv><tuv xml:lang="de"><seg>Hallo</seg></tuv>`,
			"no sentence found in target language in this <tu>",
		},
		{
			"tuv without xml:lang",
			`<tuv><seg>Hello</seg></tuv><tuv><seg>Bonjour</seg></tuv>`,
			"no sentence found in source and target languages in this <tu>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTMX(tmxWithTU(tt.tuvs), DefaultLimits())
			var err error
			for err == nil {
				_, err = p.Next()
			}
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.message, fe.Message)
		})
	}
}

func TestTMXParser_SkipInvalid_ToleratesAndRecords(t *testing.T) {
	in := `<tmx>
<header srclang="en" />
  <body>
    <tu>
      <tuv xml:lang="de"><seg>Hallo</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour</seg></tuv>
    </tu>
    <tu>
      <tuv xml:lang="en"><seg>Hello</seg></tuv>
      <tuv xml:lang="fr"><seg>Bonjour</seg></tuv>
    </tu>
  </body>
</tmx>`
	limits := DefaultLimits()
	limits.SkipInvalid = true
	p := newTMX(in, limits)

	pairs := drain(t, p)
	require.Equal(t, []Pair{{Source: "Hello", Target: "Bonjour"}}, pairs)

	skipped := p.SkippedRecords()
	require.Len(t, skipped, 1)
	assert.Equal(t, "no sentence found in source language in this <tu>", skipped[0].Reason)
	assert.Equal(t, "Bonjour", skipped[0].Target)
	assert.Empty(t, skipped[0].Source)
	assert.Positive(t, skipped[0].Line)
}

func TestTMXParser_SkipInvalid_CapConvertsToFatal(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<tmx>\n<header srclang=\"en\" />\n<body>\n")
	for i := 0; i < 4; i++ {
		sb.WriteString(`<tu><tuv xml:lang="de"><seg>Hallo</seg></tuv></tu>` + "\n")
	}
	sb.WriteString("</body>\n</tmx>")

	limits := Limits{MaxSkippedRecords: 3, SkipInvalid: true}
	p := newTMX(sb.String(), limits)

	var err error
	for err == nil {
		_, err = p.Next()
	}
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "too many sentence pairs (3) skipped")
	assert.Len(t, p.SkippedRecords(), 3)
}

func TestTMXParser_RecordExceedsByteBudget(t *testing.T) {
	// One tu larger than the record budget must fail rather than buffer.
	huge := strings.Repeat("x", 2048)
	in := tmxWithTU(fmt.Sprintf(
		`<tuv xml:lang="en"><seg>%s</seg></tuv><tuv xml:lang="fr"><seg>%s</seg></tuv>`, huge, huge))

	limits := Limits{MaxRecordBytes: 1024}
	p := newTMX(in, limits)

	var err error
	for err == nil {
		_, err = p.Next()
	}
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "1024 bytes limit")
}

func TestTMXParser_ErrorLineNumbers(t *testing.T) {
	in := "<tmx>\n<header srclang=\"en\" />\n<body>\n<tu>\n" +
		`<tuv xml:lang="de"><seg>Hallo</seg></tuv>` + "\n</tu>\n</body>\n</tmx>"
	p := newTMX(in, DefaultLimits())

	_, err := p.Next()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	// The tu closes on line 6.
	assert.Equal(t, 6, fe.Line)
}

func TestTMXExporter_GoldenOutput(t *testing.T) {
	var buf bytes.Buffer
	e := NewTMXExporter("en-US", "fr-CA", &buf)

	require.NoError(t, e.Begin())
	require.NoError(t, e.Feed(Pair{Source: "Hello", Target: "Bonjour"}))
	require.NoError(t, e.Close())

	want := `<?xml version="1.0" encoding="UTF-8" ?>
<tmx version="1.4">
<header srclang="en-US" adminlang="en-us" o-tmf="unknown" segtype="sentence" creationtool="Uplug" creationtoolversion="unknown" datatype="PlainText" />
  <body>
    <tu>
      <tuv xml:lang="en-US"><seg>Hello</seg></tuv>
      <tuv xml:lang="fr-CA"><seg>Bonjour</seg></tuv>
    </tu>
  </body>
</tmx>`
	assert.Equal(t, want, buf.String())
}

func TestTMXExporter_KeepsOriginalLanguageCodes(t *testing.T) {
	var buf bytes.Buffer
	e := NewTMXExporter("en-US", "zh-Hant-TW", &buf)
	require.NoError(t, e.Begin())
	require.NoError(t, e.Feed(Pair{Source: "s", Target: "t"}))
	require.NoError(t, e.Close())

	out := buf.String()
	assert.Contains(t, out, `xml:lang="en-US"`)
	assert.Contains(t, out, `xml:lang="zh-Hant-TW"`)
	assert.NotContains(t, out, `xml:lang="en"`)
	assert.NotContains(t, out, `xml:lang="zh"`)
}

func TestTMX_RoundTrip(t *testing.T) {
	pairs := []Pair{
		{Source: "Hello", Target: "Bonjour"},
		{Source: "How are you?", Target: "Comment ça va ?"},
	}

	var first bytes.Buffer
	e := NewTMXExporter("en", "fr", &first)
	require.NoError(t, e.Begin())
	for _, pair := range pairs {
		require.NoError(t, e.Feed(pair))
	}
	require.NoError(t, e.Close())

	p := NewTMXParser("en", "fr", bytes.NewReader(first.Bytes()), DefaultLimits())
	require.Equal(t, pairs, drain(t, p))

	// Exporting the re-parsed pairs again is byte-identical.
	var second bytes.Buffer
	e2 := NewTMXExporter("en", "fr", &second)
	require.NoError(t, e2.Begin())
	p2 := NewTMXParser("en", "fr", bytes.NewReader(first.Bytes()), DefaultLimits())
	for _, pair := range drain(t, p2) {
		require.NoError(t, e2.Feed(pair))
	}
	require.NoError(t, e2.Close())
	assert.Equal(t, first.String(), second.String())
}
