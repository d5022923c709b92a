package sites

import "errors"

var (
	ErrSiteNotFound      = errors.New("sites: site not found")
	ErrDomainNotMapped   = errors.New("sites: domain not mapped")
	ErrInvalidIdentifier = errors.New("sites: invalid identifier")
	ErrInvalidRecord     = errors.New("sites: invalid site record")
	ErrStaleWrite        = errors.New("sites: stored record is newer")
	ErrStoreFailed       = errors.New("sites: store operation failed")
)
