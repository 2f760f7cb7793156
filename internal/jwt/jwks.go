package jwt

import "encoding/json"

// PublicJSON serializa el set como documento JWKS publicable
// (solo miembros públicos, nunca el escalar privado).
func (s *JWKS) PublicJSON() []byte {
	out := JWKS{Keys: make([]JWK, 0, len(s.Keys))}
	for _, k := range s.Keys {
		out.Keys = append(out.Keys, k.Public())
	}
	b, _ := json.Marshal(out)
	return b
}
