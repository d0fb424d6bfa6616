package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(18,
		text.NewCol(12, data.StoreName, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(12,
		col.New(12).Add(
			text.New(data.StoreAddress, props.Text{Size: 9, Align: align.Center}),
			text.New(data.StorePhone, props.Text{Size: 9, Align: align.Center, Top: 4}),
		),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Bill number: "+data.BillNumber, props.Text{Top: 0}),
			text.New("Date: "+data.BillDate, props.Text{Top: 4}),
		),
		col.New(6).Add(
			text.New("Customer: "+data.CustomerName, props.Text{Top: 0, Align: align.Right}),
			text.New("Phone: "+data.CustomerPhone, props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	if data.Discount != "" {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "Discount", props.Text{Size: 9}),
			text.NewCol(2, "-"+data.Discount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(2, data.Total, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)

	if data.LoyaltyMessage != "" {
		m.AddRow(12,
			text.NewCol(12, data.LoyaltyMessage, props.Text{
				Size:  10,
				Style: fontstyle.Italic,
				Align: align.Center,
				Top:   4,
			}),
		)
	}

	m.AddRow(10,
		text.NewCol(12, "Thank you for visiting!", props.Text{
			Size:  9,
			Align: align.Center,
			Top:   4,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
