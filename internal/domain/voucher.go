package domain

// Voucher states as persisted. Estado only ever moves disponible → usado.
const (
	VoucherAvailable = "disponible"
	VoucherUsed      = "usado"
)

// Voucher is a single-record-per-document entity: the code doubles as the
// document key.
type Voucher struct {
	Codigo string `firestore:"codigo" json:"codigo"`
	Titulo string `firestore:"titulo" json:"titulo"`
	Estado string `firestore:"estado" json:"estado"`
	Fecha  string `firestore:"fecha" json:"fecha"`
}

// Available reports whether the voucher can still be redeemed.
func (v Voucher) Available() bool {
	return v.Estado == VoucherAvailable
}
