package media

import (
	"net"
	"net/url"
	"strings"
)

// HostAllowList limits which hosts the media proxy fetches from. A host is
// allowed when it equals an entry or is a subdomain of one. Loopback, private
// and link-local addresses are refused whatever the list says.
type HostAllowList []string

func NewHostAllowList(hosts []string) HostAllowList {
	list := make(HostAllowList, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.Trim(strings.ToLower(strings.TrimSpace(h)), "."); h != "" {
			list = append(list, h)
		}
	}
	return list
}

// Allows reports whether u may be proxied. An empty list allows every public host.
func (l HostAllowList) Allows(u *url.URL) bool {
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false
		}
	}
	if len(l) == 0 {
		return true
	}
	for _, allowed := range l {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
