package mandate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	vinNameToken = regexp.MustCompile(`(^|[^a-z])(vin|chassis|case)`)
	nsToken      = regexp.MustCompile(`(^|[^a-z])ns([^a-z]|$)`)
	lastNumber   = regexp.MustCompile(`(\d+)\D*$`)
	nameSepRepl  = strings.NewReplacer("_", " ", "-", " ", ".", " ")
)

// looksLikeVINName reports whether a field name suggests one VIN character box
func looksLikeVINName(name string) bool {
	n := nameSepRepl.Replace(strings.ToLower(name))
	if !strings.ContainsAny(n, "0123456789") {
		return false
	}
	if vinNameToken.MatchString(n) || nsToken.MatchString(n) {
		return true
	}
	for _, s := range []string{"numero serie", "numéro série", "numéro serie", "num serie"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// vinPosition extracts the last number embedded in name as a 1-based position.
// Numbers outside 1..17 (years, unrelated counters) are rejected.
func vinPosition(name string) (int, bool) {
	m := lastNumber.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	pos, err := strconv.Atoi(m[1])
	if err != nil || pos < 1 || pos > VINLength {
		return 0, false
	}
	return pos, true
}

// DiscoverVINFields maps 0-based VIN positions to field names. Names are scanned in
// document order with the name heuristics first; positions still missing are looked
// up by synthesizing prefix+index names from patterns.
func DiscoverVINFields(names []string, patterns []string) map[int]string {
	found := make(map[int]string)
	for _, name := range names {
		if !looksLikeVINName(name) {
			continue
		}
		pos, ok := vinPosition(name)
		if !ok {
			continue
		}
		if _, dup := found[pos-1]; !dup {
			found[pos-1] = name
		}
	}

	if len(found) == VINLength {
		return found
	}

	available := make(map[string]struct{}, len(names))
	for _, n := range names {
		available[n] = struct{}{}
	}

	for i := 0; i < VINLength; i++ {
		if _, ok := found[i]; ok {
			continue
		}
		for _, candidate := range vinCandidateNames(patterns, i+1) {
			if _, ok := available[candidate]; ok {
				found[i] = candidate
				break
			}
		}
	}
	return found
}

// vinCandidateNames builds the literal names tried for one position
func vinCandidateNames(patterns []string, index int) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, p := range patterns {
		for _, prefix := range []string{p, strings.ToLower(p), strings.ToUpper(p)} {
			for _, suffix := range []string{
				strconv.Itoa(index),
				"_" + strconv.Itoa(index),
				"-" + strconv.Itoa(index),
				fmt.Sprintf("%02d", index),
				fmt.Sprintf("_%02d", index),
				fmt.Sprintf("-%02d", index),
			} {
				add(prefix + suffix)
			}
		}
	}
	return out
}

// fillVIN places the 17 VIN characters: fixed slots, then discovered slots, then a
// single whole-VIN field.
func fillVIN(s *session, m Mapping, vin string) FillResult {
	chars := []rune(vin)
	filled := make([]bool, VINLength)

	strategies := []Strategy{
		{
			Name: "fixed-slots",
			Run: func(s *session) (FillResult, bool) {
				res, got := s.fillSlots(m.VINSlots, vin, false)
				copy(filled, got)
				return res, countTrue(filled) == VINLength
			},
		},
		{
			Name: "pattern-discovery",
			Run: func(s *session) (FillResult, bool) {
				names := make([]string, 0, len(s.names))
				for _, f := range s.form.Fields() {
					if s.has(f.Name) {
						names = append(names, f.Name)
					}
				}
				targets := DiscoverVINFields(names, m.VINFieldPatterns)
				s.log.Debug("mandate.vin.discovered", zap.Int("positions", len(targets)))

				var res FillResult
				for i := 0; i < VINLength && i < len(chars); i++ {
					name, ok := targets[i]
					if !ok || filled[i] {
						continue
					}
					if s.write(name, string(chars[i])) {
						filled[i] = true
						res = res.Merge(succeeded(name))
					}
				}
				return res, countTrue(filled) == VINLength
			},
		},
		{
			Name: "single-field",
			Run: func(s *session) (FillResult, bool) {
				name, ok := ResolveField(m.VIN, s.names)
				if !ok || !s.write(name, vin) {
					return FillResult{}, false
				}
				return succeeded(name), true
			},
		},
	}

	res, ok := runChain(s, "vin", strategies)
	if !ok {
		res = res.Merge(failed(fmt.Sprintf("VIN : %d/%d positions remplies, aucun champ VIN unique",
			countTrue(filled), VINLength)))
	}
	return res
}
