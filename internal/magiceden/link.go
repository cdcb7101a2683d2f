package magiceden

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// LinkKind tags the two collection link shapes the marketplace uses.
type LinkKind int

const (
	// KindMintTerminal links carry the mint contract address directly.
	KindMintTerminal LinkKind = iota
	// KindLaunchpad links carry a project slug; stages are fetched by
	// collection id in a second call.
	KindLaunchpad
)

var ErrBadLink = errors.New("unrecognized collection link")

// Link is a collection link validated once at the boundary, so nothing
// downstream touches the raw string shape.
type Link struct {
	Kind     LinkKind
	Chain    string
	Contract common.Address
	Slug     string
}

// ParseLink classifies a collection link.
//
//	https://magiceden.io/mint-terminal/<chain>/<contract>
//	https://magiceden.io/launchpad/<slug>
func ParseLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrBadLink, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Link{}, fmt.Errorf("%w: missing scheme in %q", ErrBadLink, raw)
	}
	if !strings.HasSuffix(u.Hostname(), "magiceden.io") {
		return Link{}, fmt.Errorf("%w: host %q", ErrBadLink, u.Hostname())
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "mint-terminal":
		if !common.IsHexAddress(parts[2]) {
			return Link{}, fmt.Errorf("%w: bad contract %q", ErrBadLink, parts[2])
		}
		return Link{
			Kind:     KindMintTerminal,
			Chain:    parts[1],
			Contract: common.HexToAddress(parts[2]),
		}, nil
	case len(parts) == 2 && parts[0] == "launchpad" && parts[1] != "":
		return Link{Kind: KindLaunchpad, Slug: parts[1]}, nil
	default:
		return Link{}, fmt.Errorf("%w: path %q", ErrBadLink, u.Path)
	}
}
