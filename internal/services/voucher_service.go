package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/textutil"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

var (
	// ErrVoucherInvalidInput indicates the caller supplied invalid voucher parameters.
	ErrVoucherInvalidInput = errors.New("voucher: invalid input")
	// ErrVoucherNotFound indicates the submitted code does not exist.
	ErrVoucherNotFound = errors.New("voucher: not found")
	// ErrVoucherUsed indicates the submitted code was already redeemed.
	ErrVoucherUsed = errors.New("voucher: already used")
)

const maxCampaignCodes = 5000

// CreateCampaignCommand mints a batch of voucher codes under one campaign title.
type CreateCampaignCommand struct {
	Titulo string
	Count  int
	Date   time.Time
}

// CampaignResult reports the codes minted for a campaign.
type CampaignResult struct {
	Titulo string
	Key    string
	Codes  []string
}

// RedemptionResult reports a successful redemption.
type RedemptionResult struct {
	Codigo string
	Titulo string
}

// VoucherServiceDeps bundles collaborators required to construct a voucher service instance.
type VoucherServiceDeps struct {
	Vouchers repositories.VoucherRepository
	Records  repositories.RecordStore
	Clock    func() time.Time
	NewCode  func() string
}

type voucherService struct {
	vouchers repositories.VoucherRepository
	records  repositories.RecordStore
	clock    func() time.Time
	newCode  func() string
}

// NewVoucherService constructs the voucher campaign and redemption service.
func NewVoucherService(deps VoucherServiceDeps) (VoucherService, error) {
	if deps.Vouchers == nil {
		return nil, errors.New("voucher service: voucher repository is required")
	}
	if deps.Records == nil {
		return nil, errors.New("voucher service: record store is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	newCode := deps.NewCode
	if newCode == nil {
		newCode = defaultVoucherCode
	}

	return &voucherService{
		vouchers: deps.Vouchers,
		records:  deps.Records,
		clock:    clock,
		newCode:  newCode,
	}, nil
}

func (s *voucherService) CreateCampaign(ctx context.Context, cmd CreateCampaignCommand) (CampaignResult, error) {
	titulo := strings.TrimSpace(cmd.Titulo)
	if titulo == "" {
		return CampaignResult{}, fmt.Errorf("%w: titulo is required", ErrVoucherInvalidInput)
	}
	if cmd.Count <= 0 || cmd.Count > maxCampaignCodes {
		return CampaignResult{}, fmt.Errorf("%w: count must be between 1 and %d", ErrVoucherInvalidInput, maxCampaignCodes)
	}

	date := cmd.Date
	if date.IsZero() {
		date = s.clock()
	}
	fecha := domain.FormatFecha(date)
	key := textutil.CanonicalKey(titulo)

	codes := make([]string, 0, cmd.Count)
	for i := 0; i < cmd.Count; i++ {
		code := s.newCode()
		if err := s.vouchers.Create(ctx, domain.Voucher{
			Codigo: code,
			Titulo: titulo,
			Estado: domain.VoucherAvailable,
			Fecha:  fecha,
		}); err != nil {
			return CampaignResult{}, fmt.Errorf("create voucher code %q: %w", code, err)
		}
		codes = append(codes, code)
	}

	entry := ledger.Record{
		"id":      key + "-" + s.newCode(),
		"titulo":  titulo,
		"clave":   key,
		"codigos": stringsToAny(codes),
		"fecha":   fecha,
	}
	if err := s.records.Mutate(ctx, ledger.Vouchers, date, ledger.Append(entry)); err != nil {
		return CampaignResult{}, err
	}

	return CampaignResult{Titulo: titulo, Key: key, Codes: codes}, nil
}

func (s *voucherService) Redeem(ctx context.Context, code string) (RedemptionResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return RedemptionResult{}, fmt.Errorf("%w: code is required", ErrVoucherInvalidInput)
	}

	ok, err := s.vouchers.Redeem(ctx, code)
	if err != nil {
		return RedemptionResult{}, err
	}
	if ok {
		voucher, err := s.vouchers.Find(ctx, code)
		if err != nil {
			// Redemption already committed; the lookup only enriches the response.
			return RedemptionResult{Codigo: code}, nil
		}
		return RedemptionResult{Codigo: code, Titulo: voucher.Titulo}, nil
	}

	voucher, err := s.vouchers.Find(ctx, code)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return RedemptionResult{}, fmt.Errorf("%w: %s", ErrVoucherNotFound, code)
		}
		return RedemptionResult{}, err
	}
	if !voucher.Available() {
		return RedemptionResult{}, fmt.Errorf("%w: %s", ErrVoucherUsed, code)
	}
	return RedemptionResult{}, fmt.Errorf("%w: %s", ErrVoucherNotFound, code)
}

// defaultVoucherCode takes the entropy tail of a ULID, which is already
// Crockford base32 and safe to read over the phone.
func defaultVoucherCode() string {
	id := ulid.Make().String()
	return id[len(id)-8:]
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
