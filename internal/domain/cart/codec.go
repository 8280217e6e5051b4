package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode serializes items as a JSON array of
// {"id","name","unit_price","image_url","category","quantity"} objects.
// Prices are written as decimal strings.
func Encode(items []Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("unit_price")
		e.Str(it.UnitPrice.String())
		e.FieldStart("image_url")
		e.Str(it.ImageURL)
		e.FieldStart("category")
		e.Str(it.Category)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// Decode parses a snapshot produced by Encode. Lines without an id or with a
// quantity below 1 are dropped, and for duplicate ids the first line wins, so
// the result always satisfies the cart invariants.
func Decode(data []byte) ([]Item, error) {
	var (
		items []Item
		seen  = make(map[string]struct{})
	)
	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		if it.ID == "" || it.Quantity < 1 {
			return nil
		}
		if _, dup := seen[it.ID]; dup {
			return nil
		}
		seen[it.ID] = struct{}{}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart snapshot")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			it.ID, err = d.Str()
		case "name":
			it.Name, err = d.Str()
		case "unit_price":
			it.UnitPrice, err = DecodeDecimal(d)
		case "image_url":
			it.ImageURL, err = d.Str()
		case "category":
			it.Category, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return it, err
}

// DecodeDecimal reads a decimal written either as a JSON string or number.
func DecodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal", d.Next())
	}
}
