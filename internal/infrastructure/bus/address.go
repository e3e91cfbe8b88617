package bus

import (
	"fmt"
	"net/url"
	"strings"
)

// Address разобранный адрес D-Bus вида "transport:key=value,key=value".
type Address struct {
	Raw       string
	Transport string
	Params    map[string]string
}

// ParseAddress разбирает адрес D-Bus. Из списка через ';' берётся первый.
func ParseAddress(raw string) (Address, error) {
	first := strings.TrimSpace(strings.SplitN(raw, ";", 2)[0])
	transport, rest, ok := strings.Cut(first, ":")
	if !ok || transport == "" {
		return Address{}, fmt.Errorf("address %q has no transport", raw)
	}

	params := make(map[string]string)
	if rest != "" {
		for _, pair := range strings.Split(rest, ",") {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return Address{}, fmt.Errorf("address %q: malformed parameter %q", raw, pair)
			}
			unescaped, err := url.PathUnescape(value)
			if err != nil {
				return Address{}, fmt.Errorf("address %q: bad escaping in %q: %w", raw, key, err)
			}
			params[key] = unescaped
		}
	}

	return Address{Raw: raw, Transport: transport, Params: params}, nil
}

// UnixSocket возвращает путь сокета для net.Dial; абстрактные имена получают префикс '@'.
func (a Address) UnixSocket() (string, bool) {
	if a.Transport != "unix" {
		return "", false
	}
	if path, ok := a.Params["path"]; ok && path != "" {
		return path, true
	}
	if name, ok := a.Params["abstract"]; ok && name != "" {
		return "@" + name, true
	}
	return "", false
}
