package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/media"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
)

// encoder is implemented by every response body.
type encoder interface {
	Encode(e *jx.Encoder)
}

// decoder is implemented by every request body.
type decoder interface {
	Decode(d *jx.Decoder) error
}

func writeJSON(w http.ResponseWriter, code int, body encoder) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	body.Encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Bytes())))
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// errMalformedBody marks request bodies that are not valid JSON for their type.
var errMalformedBody = errors.New("malformed request body")

func readJSON(r *http.Request, v decoder) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if err := v.Decode(jx.DecodeBytes(data)); err != nil {
		return errors.Wrap(errMalformedBody, err.Error())
	}
	return nil
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeOptTime(e *jx.Encoder, t *time.Time) {
	if t == nil {
		e.Null()
		return
	}
	encodeTime(e, *t)
}

// Products.

type productBody struct {
	p         product.Product
	imageBase string
}

func (b productBody) Encode(e *jx.Encoder) {
	p := b.p
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.FieldStart("imageUrl")
	e.Str(product.ResolveImageURL(b.imageBase, p.ImageURL))
	e.FieldStart("category")
	e.Str(string(p.Category))
	e.FieldStart("stockQuantity")
	e.Int(p.StockQuantity)
	e.FieldStart("inStock")
	e.Bool(p.InStock())
	e.FieldStart("lowStock")
	e.Bool(p.LowStock())
	e.FieldStart("createdAt")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, p.UpdatedAt)
	e.ObjEnd()
}

type productList struct {
	items     []product.Product
	imageBase string
}

func (b productList) Encode(e *jx.Encoder) {
	e.ArrStart()
	for _, p := range b.items {
		productBody{p: p, imageBase: b.imageBase}.Encode(e)
	}
	e.ArrEnd()
}

// productRequest is the admin create/update body.
type productRequest struct {
	draft product.Draft
}

func (r *productRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			r.draft.Name, err = d.Str()
		case "description":
			r.draft.Description, err = d.Str()
		case "price":
			r.draft.Price, err = cart.DecodeDecimal(d)
		case "imageUrl":
			r.draft.ImageURL, err = d.Str()
		case "category":
			r.draft.Category, err = d.Str()
		case "stockQuantity":
			r.draft.StockQuantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

// Cart.

type cartBody struct {
	view      cart.View
	imageBase string
}

func (b cartBody) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range b.view.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		encodeMoney(e, it.UnitPrice)
		e.FieldStart("imageUrl")
		e.Str(product.ResolveImageURL(b.imageBase, it.ImageURL))
		e.FieldStart("category")
		e.Str(it.Category)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("lineTotal")
		encodeMoney(e, it.LineTotal())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("itemCount")
	e.Int(b.view.ItemCount)
	e.FieldStart("total")
	encodeMoney(e, b.view.Total)
	e.ObjEnd()
}

type addCartItemRequest struct {
	ID string
}

func (r *addCartItemRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		var err error
		r.ID, err = d.Str()
		return err
	})
}

type quantityRequest struct {
	Quantity int
	set      bool
}

func (r *quantityRequest) Decode(d *jx.Decoder) error {
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		var err error
		r.Quantity, err = d.Int()
		r.set = err == nil
		return err
	}); err != nil {
		return err
	}
	if !r.set {
		return errors.New("quantity is required")
	}
	return nil
}

// Wishlist.

type wishlistBody struct {
	entries   []wishlist.Entry
	imageBase string
}

func (b wishlistBody) Encode(e *jx.Encoder) {
	e.ArrStart()
	for _, en := range b.entries {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(en.ID)
		e.FieldStart("productId")
		e.Str(en.ProductID)
		e.FieldStart("product")
		productBody{p: en.Product, imageBase: b.imageBase}.Encode(e)
		e.FieldStart("createdAt")
		encodeTime(e, en.CreatedAt)
		e.ObjEnd()
	}
	e.ArrEnd()
}

type wishlistRequest struct {
	ProductID string
}

func (r *wishlistRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		var err error
		r.ProductID, err = d.Str()
		return err
	})
}

// Orders.

type orderBody struct {
	o         order.Order
	imageBase string
}

func (b orderBody) Encode(e *jx.Encoder) {
	o := b.o
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("version")
	e.Int(o.Version)
	e.FieldStart("totalAmount")
	encodeMoney(e, o.TotalAmount)
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("shippingAddress")
	e.Str(o.ShippingAddress)
	e.FieldStart("contactInfo")
	e.ObjStart()
	e.FieldStart("firstName")
	e.Str(o.ContactInfo.FirstName)
	e.FieldStart("lastName")
	e.Str(o.ContactInfo.LastName)
	e.FieldStart("email")
	e.Str(o.ContactInfo.Email)
	e.FieldStart("phone")
	e.Str(o.ContactInfo.Phone)
	e.ObjEnd()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("productName")
		e.Str(it.ProductName)
		e.FieldStart("productImage")
		e.Str(product.ResolveImageURL(b.imageBase, it.ProductImage))
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("price")
		encodeMoney(e, it.Price)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, o.UpdatedAt)
	e.FieldStart("processingDate")
	encodeOptTime(e, o.ProcessingDate)
	e.FieldStart("shippedDate")
	encodeOptTime(e, o.ShippedDate)
	e.FieldStart("deliveredDate")
	encodeOptTime(e, o.DeliveredDate)
	e.ObjEnd()
}

type orderList struct {
	orders    []order.Order
	imageBase string
}

func (b orderList) Encode(e *jx.Encoder) {
	e.ArrStart()
	for _, o := range b.orders {
		orderBody{o: o, imageBase: b.imageBase}.Encode(e)
	}
	e.ArrEnd()
}

// checkoutRequest carries everything but the items, which come from the cart.
type checkoutRequest struct {
	PaymentMethod string
	Shipping      order.ShippingAddress
	Contact       order.ContactInfo
}

func (r *checkoutRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "paymentMethod":
			r.PaymentMethod, err = d.Str()
		case "shipping":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "address":
					r.Shipping.Address, err = d.Str()
				case "city":
					r.Shipping.City, err = d.Str()
				case "state":
					r.Shipping.State, err = d.Str()
				case "pincode":
					r.Shipping.Pincode, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		case "contact":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "firstName":
					r.Contact.FirstName, err = d.Str()
				case "lastName":
					r.Contact.LastName, err = d.Str()
				case "email":
					r.Contact.Email, err = d.Str()
				case "phone":
					r.Contact.Phone, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

type statusRequest struct {
	Status  string
	Version int
}

func (r *statusRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			r.Status, err = d.Str()
		case "version":
			r.Version, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

type statsBody struct {
	s         *order.Stats
	imageBase string
}

func (b statsBody) Encode(e *jx.Encoder) {
	s := b.s
	e.ObjStart()
	e.FieldStart("products")
	e.Int(s.Products)
	e.FieldStart("outOfStock")
	e.Int(s.OutOfStock)
	e.FieldStart("lowStock")
	e.Int(s.LowStock)
	e.FieldStart("orders")
	e.Int(s.Orders)
	e.FieldStart("byStatus")
	e.ObjStart()
	for _, st := range order.Statuses {
		e.FieldStart(string(st))
		e.Int(s.ByStatus[st])
	}
	e.ObjEnd()
	e.FieldStart("revenue")
	encodeMoney(e, s.Revenue)
	e.FieldStart("recent")
	orderList{orders: s.Recent, imageBase: b.imageBase}.Encode(e)
	e.ObjEnd()
}

// Media.

type mediaBody struct {
	m media.Media
}

func (b mediaBody) Encode(e *jx.Encoder) {
	m := b.m
	e.ObjStart()
	e.FieldStart("id")
	e.Str(m.ID)
	e.FieldStart("productId")
	e.Str(m.ProductID)
	e.FieldStart("url")
	e.Str(m.URL)
	e.FieldStart("type")
	e.Str(string(m.Type))
	e.FieldStart("displayOrder")
	e.Int(m.DisplayOrder)
	e.FieldStart("altText")
	e.Str(m.AltText)
	e.FieldStart("createdAt")
	encodeTime(e, m.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, m.UpdatedAt)
	e.ObjEnd()
}

type mediaList []media.Media

func (l mediaList) Encode(e *jx.Encoder) {
	e.ArrStart()
	for _, m := range l {
		mediaBody{m: m}.Encode(e)
	}
	e.ArrEnd()
}
