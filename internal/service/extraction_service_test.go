package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractionServiceIsSupported(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	assert.True(t, svc.IsSupported("faq.txt"))
	assert.True(t, svc.IsSupported("prices.CSV"))
	assert.True(t, svc.IsSupported("manual.pdf"))
	assert.True(t, svc.IsSupported("policy.docx"))
	assert.False(t, svc.IsSupported("photo.png"))
	assert.False(t, svc.IsSupported("archive.zip"))
	assert.False(t, svc.IsSupported("noextension"))
}

func TestExtractionServicePlainText(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	text, err := svc.ExtractFile("faq.txt", []byte("  How do I cancel my order?  "))

	require.NoError(t, err)
	assert.Equal(t, "How do I cancel my order?", text)
}

func TestExtractionServiceCSV(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	text, err := svc.ExtractFile("prices.csv", []byte("plan,price\nbasic,10\npro,25\n"))

	require.NoError(t, err)
	assert.Contains(t, text, "basic,10")
}

func TestExtractionServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	_, err := svc.ExtractFile("image.png", []byte{0x89, 0x50})

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractionServiceEmptyFile(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	_, err := svc.ExtractFile("empty.txt", []byte("   \n  "))

	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractionServiceSanitizesInvalidUTF8(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	text, err := svc.ExtractFile("broken.txt", []byte("hel\xfflo"))

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestExtractionServiceHTML(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())
	page := `<html><head><title>FAQ</title><style>body{color:red}</style></head>
	<body><script>track()</script><h1>Shipping</h1><p>Orders   ship in
	two days.</p></body></html>`

	text, err := svc.ExtractHTML(strings.NewReader(page))

	require.NoError(t, err)
	assert.Contains(t, text, "Shipping")
	assert.Contains(t, text, "Orders ship in two days.")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "color:red")
}

func TestExtractionServiceHTMLNoVisibleText(t *testing.T) {
	svc := NewExtractionService(zap.NewNop())

	_, err := svc.ExtractHTML(strings.NewReader("<html><body><script>x()</script></body></html>"))

	assert.ErrorIs(t, err, ErrNoText)
}
