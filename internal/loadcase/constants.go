package loadcase

import (
	"fmt"
	"strconv"
	"strings"
)

// Equivalent static seismic constants

const (
	// Gravity is the gravitational acceleration used for unit acceleration
	// cases and for converting mass to weight. The model's present units
	// must use metres for this to be consistent.
	Gravity = 9.81 // m/s²

	// DOFCount is the number of components in a nodal load vector
	// (F1, F2, F3, M1, M2, M3).
	DOFCount = 6
)

// Units is the engine's present-units tag.
type Units int

// Present-units tags understood by the engine
const (
	UnitsLbInF  Units = 1
	UnitsLbFtF  Units = 2
	UnitsKipInF Units = 3
	UnitsKipFtF Units = 4
	UnitsKNMmC  Units = 5
	UnitsKNMC   Units = 6
	UnitsKgfMmC Units = 7
	UnitsKgfMC  Units = 8
	UnitsNMmC   Units = 9
	UnitsNMC    Units = 10
	UnitsTonMmC Units = 11
	UnitsTonMC  Units = 12
	UnitsKNCmC  Units = 13
	UnitsKgfCmC Units = 14
	UnitsNCmC   Units = 15
	UnitsTonCmC Units = 16
)

// DefaultUnits is Ton_m_C: tonne mass and metre length keep g = 9.81
// consistent with the acceleration load.
const DefaultUnits = UnitsTonMC

var unitNames = map[Units]string{
	UnitsLbInF:  "lb_in_F",
	UnitsLbFtF:  "lb_ft_F",
	UnitsKipInF: "kip_in_F",
	UnitsKipFtF: "kip_ft_F",
	UnitsKNMmC:  "kN_mm_C",
	UnitsKNMC:   "kN_m_C",
	UnitsKgfMmC: "kgf_mm_C",
	UnitsKgfMC:  "kgf_m_C",
	UnitsNMmC:   "N_mm_C",
	UnitsNMC:    "N_m_C",
	UnitsTonMmC: "Ton_mm_C",
	UnitsTonMC:  "Ton_m_C",
	UnitsKNCmC:  "kN_cm_C",
	UnitsKgfCmC: "kgf_cm_C",
	UnitsNCmC:   "N_cm_C",
	UnitsTonCmC: "Ton_cm_C",
}

func (u Units) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	return fmt.Sprintf("units(%d)", int(u))
}

// ParseUnits accepts a tag number, a unit name such as "Ton_m_C", or the
// engine's table form such as "KN, m, C" or "Tonf, m, C". Case is ignored.
func ParseUnits(s string) (Units, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if _, ok := unitNames[Units(n)]; ok {
			return Units(n), nil
		}
	}
	want := normalizeUnits(s)
	for u, name := range unitNames {
		if normalizeUnits(name) == want {
			return u, nil
		}
	}
	return 0, fmt.Errorf("unknown units %q", s)
}

func normalizeUnits(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == '_' || r == ' '
	})
	for i, p := range parts {
		if p == "tonf" {
			parts[i] = "ton"
		}
	}
	return strings.Join(parts, "_")
}
