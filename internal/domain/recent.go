package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const recentSeparator = ","

// EncodeRecent renders placements, most recent first, as the compact rolling
// record stored on the member row ("3,1,8").
func EncodeRecent(placements []int) string {
	parts := make([]string, len(placements))
	for i, p := range placements {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, recentSeparator)
}

// DecodeRecent parses a rolling record produced by EncodeRecent.
func DecodeRecent(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	parts := strings.Split(s, recentSeparator)
	placements := make([]int, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid placement %q: %w", part, err)
		}
		if p < 1 {
			return nil, fmt.Errorf("placement must be positive, got %d", p)
		}
		placements = append(placements, p)
	}
	return placements, nil
}

// IsWin reports whether a placement counts as a win: top half of the lobby.
func IsWin(placement, lobbySize int) bool {
	return placement >= 1 && placement <= lobbySize/2
}

// DecodeOutcomes returns win/loss flags for a rolling record. Older rows
// stored "W"/"L" letters instead of placements; both are accepted.
func DecodeOutcomes(s string, lobbySize int) ([]bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []bool{}, nil
	}

	parts := strings.Split(s, recentSeparator)
	outcomes := make([]bool, 0, len(parts))
	for _, part := range parts {
		switch strings.ToUpper(strings.TrimSpace(part)) {
		case "W":
			outcomes = append(outcomes, true)
		case "L":
			outcomes = append(outcomes, false)
		default:
			p, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || p < 1 {
				return nil, fmt.Errorf("invalid rolling record entry %q", part)
			}
			outcomes = append(outcomes, IsWin(p, lobbySize))
		}
	}
	return outcomes, nil
}

// WinRate is the share of wins in outcomes, 0 when empty.
func WinRate(outcomes []bool) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	wins := 0
	for _, won := range outcomes {
		if won {
			wins++
		}
	}
	return float64(wins) / float64(len(outcomes))
}

// AveragePlacement is the mean of placements, 0 when empty.
func AveragePlacement(placements []int) float64 {
	if len(placements) == 0 {
		return 0
	}
	total := 0
	for _, p := range placements {
		total += p
	}
	return float64(total) / float64(len(placements))
}
