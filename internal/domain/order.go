package domain

import (
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
)

// CourierUnassigned is the sentinel stored in cadete while no courier holds the order.
const CourierUnassigned = "NO ASIGNADO"

// Item is one line of an order: a burger plus its topping selection.
type Item struct {
	Burger        string   `json:"burger"`
	Toppings      []string `json:"toppings"`
	Quantity      int      `json:"quantity"`
	PriceBurger   float64  `json:"priceBurger"`
	PriceToppings float64  `json:"priceToppings"`
	SubTotal      float64  `json:"subTotal"`
	CostoBurger   float64  `json:"costoBurger"`
}

// Order is the typed view of an order record. Orders are persisted as open
// mappings inside day buckets; this struct covers the fields the service
// reads and writes, while unknown fields ride along untouched at the
// record level.
type Order struct {
	ID       string  `json:"id"`
	Total    float64 `json:"total"`
	SubTotal float64 `json:"subTotal"`
	Envio    float64 `json:"envio"`
	Items    []Item  `json:"detallePedido"`

	Paid                   bool `json:"paid"`
	Elaborado              bool `json:"elaborado"`
	Entregado              bool `json:"entregado"`
	PendingOfBeingAccepted bool `json:"pendingOfBeingAccepted"`
	Cerca                  bool `json:"cerca"`
	Dislike                bool `json:"dislike"`
	Delay                  bool `json:"delay"`

	Hora            string `json:"hora"`
	TiempoElaborado string `json:"tiempoElaborado"`
	TiempoEntregado string `json:"tiempoEntregado"`
	Fecha           string `json:"fecha"`

	Direccion      string     `json:"direccion"`
	Ubicacion      string     `json:"ubicacion"`
	Referencias    string     `json:"referencias"`
	Map            [2]float64 `json:"map"`
	Cadete         string     `json:"cadete"`
	Kms            float64    `json:"kms"`
	MinutosDist    float64    `json:"minutosDistancia"`
	DeliveryMethod string     `json:"deliveryMethod"`

	Telefono     string   `json:"telefono"`
	MetodoPago   string   `json:"metodoPago"`
	Aclaraciones string   `json:"aclaraciones"`
	CouponCodes  []string `json:"couponCodes"`
}

// ToRecord converts the order into its persisted open-mapping shape.
func (o Order) ToRecord() ledger.Record {
	items := make([]any, 0, len(o.Items))
	for _, item := range o.Items {
		toppings := make([]any, 0, len(item.Toppings))
		for _, t := range item.Toppings {
			toppings = append(toppings, t)
		}
		items = append(items, map[string]any{
			"burger":        item.Burger,
			"toppings":      toppings,
			"quantity":      item.Quantity,
			"priceBurger":   item.PriceBurger,
			"priceToppings": item.PriceToppings,
			"subTotal":      item.SubTotal,
			"costoBurger":   item.CostoBurger,
		})
	}

	coupons := make([]any, 0, len(o.CouponCodes))
	for _, c := range o.CouponCodes {
		coupons = append(coupons, c)
	}

	cadete := o.Cadete
	if cadete == "" {
		cadete = CourierUnassigned
	}

	return ledger.Record{
		"id":                     o.ID,
		"total":                  o.Total,
		"subTotal":               o.SubTotal,
		"envio":                  o.Envio,
		"detallePedido":          items,
		"paid":                   o.Paid,
		"elaborado":              o.Elaborado,
		"entregado":              o.Entregado,
		"pendingOfBeingAccepted": o.PendingOfBeingAccepted,
		"cerca":                  o.Cerca,
		"dislike":                o.Dislike,
		"delay":                  o.Delay,
		"hora":                   o.Hora,
		"tiempoElaborado":        o.TiempoElaborado,
		"tiempoEntregado":        o.TiempoEntregado,
		"fecha":                  o.Fecha,
		"direccion":              o.Direccion,
		"ubicacion":              o.Ubicacion,
		"referencias":            o.Referencias,
		"map":                    []any{o.Map[0], o.Map[1]},
		"cadete":                 cadete,
		"kms":                    o.Kms,
		"minutosDistancia":       o.MinutosDist,
		"deliveryMethod":         o.DeliveryMethod,
		"telefono":               o.Telefono,
		"metodoPago":             o.MetodoPago,
		"aclaraciones":           o.Aclaraciones,
		"couponCodes":            coupons,
	}
}

// OrderFromRecord hydrates the typed view from a persisted record. Fields
// absent on legacy records come back as zero values.
func OrderFromRecord(rec ledger.Record) Order {
	order := Order{
		ID:                     rec.ID(),
		Total:                  rec.Float("total"),
		SubTotal:               rec.Float("subTotal"),
		Envio:                  rec.Float("envio"),
		Paid:                   rec.Bool("paid"),
		Elaborado:              rec.Bool("elaborado"),
		Entregado:              rec.Bool("entregado"),
		PendingOfBeingAccepted: rec.Bool("pendingOfBeingAccepted"),
		Cerca:                  rec.Bool("cerca"),
		Dislike:                rec.Bool("dislike"),
		Delay:                  rec.Bool("delay"),
		Hora:                   rec.String("hora"),
		TiempoElaborado:        rec.String("tiempoElaborado"),
		TiempoEntregado:        rec.String("tiempoEntregado"),
		Fecha:                  rec.String("fecha"),
		Direccion:              rec.String("direccion"),
		Ubicacion:              rec.String("ubicacion"),
		Referencias:            rec.String("referencias"),
		Cadete:                 rec.String("cadete"),
		Kms:                    rec.Float("kms"),
		MinutosDist:            rec.Float("minutosDistancia"),
		DeliveryMethod:         rec.String("deliveryMethod"),
		Telefono:               rec.String("telefono"),
		MetodoPago:             rec.String("metodoPago"),
		Aclaraciones:           rec.String("aclaraciones"),
	}

	if coords, ok := rec["map"].([]any); ok && len(coords) == 2 {
		order.Map[0] = floatValue(coords[0])
		order.Map[1] = floatValue(coords[1])
	}

	if rawItems, ok := rec["detallePedido"].([]any); ok {
		for _, raw := range rawItems {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			line := ledger.Record(entry)
			item := Item{
				Burger:        line.String("burger"),
				Quantity:      int(line.Float("quantity")),
				PriceBurger:   line.Float("priceBurger"),
				PriceToppings: line.Float("priceToppings"),
				SubTotal:      line.Float("subTotal"),
				CostoBurger:   line.Float("costoBurger"),
			}
			if toppings, ok := entry["toppings"].([]any); ok {
				for _, t := range toppings {
					if s, ok := t.(string); ok {
						item.Toppings = append(item.Toppings, s)
					}
				}
			}
			order.Items = append(order.Items, item)
		}
	}

	if coupons, ok := rec["couponCodes"].([]any); ok {
		for _, c := range coupons {
			if s, ok := c.(string); ok {
				order.CouponCodes = append(order.CouponCodes, s)
			}
		}
	}
	return order
}

// FormatFecha renders the persisted date string for a given day.
func FormatFecha(date time.Time) string {
	return date.Format("02/01/2006")
}

func floatValue(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	}
	return 0
}
