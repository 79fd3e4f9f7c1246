package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared by the stores. Domain services map these onto their
// own sentinels at the boundary.
var (
	ErrParishNotFound       = errors.New("parish not found")
	ErrParishSlugConflict   = errors.New("parish slug already exists")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrMembershipConflict   = errors.New("active membership already exists")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrMinistryNotFound     = errors.New("ministry not found")
	ErrPrayerNotFound       = errors.New("prayer request not found")
	ErrIntentionNotFound    = errors.New("mass intention not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrSalesPointNotFound   = errors.New("sales point not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOutOfStock           = errors.New("insufficient stock")
	ErrPledgerNotFound      = errors.New("pledger not found")
	ErrPledgeNotFound       = errors.New("pledge not found")
	ErrInstallmentNotFound  = errors.New("installment not found")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
