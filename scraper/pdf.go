package scraper

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// A4 paper in inches, with 0.5cm margins.
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
	marginIn   = 0.5 / 2.54
)

// PrintPDF loads html into a fresh page and prints it to an A4 PDF with
// backgrounds.
func (s *Scraper) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	page, release, err := s.session()
	if err != nil {
		return nil, fmt.Errorf("pdf: open browser session: %w", err)
	}
	defer release()

	p := page.Context(ctx)
	if err := p.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("pdf: set content: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("pdf: wait load: %w", err)
	}

	stream, err := p.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      gson.Num(a4WidthIn),
		PaperHeight:     gson.Num(a4HeightIn),
		MarginTop:       gson.Num(marginIn),
		MarginBottom:    gson.Num(marginIn),
		MarginLeft:      gson.Num(marginIn),
		MarginRight:     gson.Num(marginIn),
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: print: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("pdf: read stream: %w", err)
	}
	return data, nil
}
