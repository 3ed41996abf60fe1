// Package identity implements the Authorizer: a pure mapping from an
// already mutually-authenticated peer certificate to a Role, per spec.md
// §4.4. It has no side effects and no network I/O of its own — TLS
// handshake and peer-certificate validation happen in internal/transport;
// this package only reads attributes off the certificate the handshake
// already accepted.
package identity

import (
	"crypto/x509"
	"errors"

	"github.com/ims-sentinel/sentineld/internal/model"
)

// ErrNoCertificate is returned when the peer presented no certificate at
// all; the caller must close the session (spec.md §4.4 failure mode).
var ErrNoCertificate = errors.New("identity: no peer certificate")

// Authorize extracts the subject commonName and organizationalUnitName
// from cert and maps them to an AuthenticatedIdentity. The mapping is:
// OU "ADMIN" -> Admin, OU "OPERATOR" -> Operator, anything else
// (including an absent OU) -> Viewer. RoleUnauthorized is retained as a
// sentinel per spec.md §9 but this mapping never produces it.
func Authorize(cert *x509.Certificate) (model.AuthenticatedIdentity, error) {
	if cert == nil {
		return model.AuthenticatedIdentity{}, ErrNoCertificate
	}

	cn := cert.Subject.CommonName
	if len(cn) > model.MaxCommonNameLength {
		cn = cn[:model.MaxCommonNameLength]
	}

	var ou string
	if len(cert.Subject.OrganizationalUnit) > 0 {
		ou = cert.Subject.OrganizationalUnit[0]
	}

	role := mapRole(ou)

	return model.AuthenticatedIdentity{
		CommonName: cn,
		Role:       role,
	}, nil
}

func mapRole(ou string) model.Role {
	switch ou {
	case "ADMIN":
		return model.RoleAdmin
	case "OPERATOR":
		return model.RoleOperator
	default:
		return model.RoleViewer
	}
}
