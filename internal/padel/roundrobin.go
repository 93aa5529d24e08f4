package padel

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
)

// Fixture 라운드 로빈 한 경기
type Fixture struct {
	Round int
	A     string
	B     string
}

// RoundRobin 서클 방식으로 모든 페어링이 서로 한 번씩 만나는 대진 생성.
// 홀수면 매 라운드 한 팀이 쉰다. 결과는 n(n-1)/2 경기.
func RoundRobin(ids []string) []Fixture {
	n := len(ids)
	if n < 2 {
		return nil
	}

	ring := make([]string, n, n+1)
	copy(ring, ids)
	if n%2 == 1 {
		ring = append(ring, "") // bye
	}
	size := len(ring)

	fixtures := make([]Fixture, 0, n*(n-1)/2)
	for round := 0; round < size-1; round++ {
		for i := 0; i < size/2; i++ {
			a, b := ring[i], ring[size-1-i]
			if a == "" || b == "" {
				continue
			}
			// 고정 팀이 매번 같은 쪽에 서지 않도록
			if i == 0 && round%2 == 1 {
				a, b = b, a
			}
			fixtures = append(fixtures, Fixture{Round: round + 1, A: a, B: b})
		}

		// 첫 번째 자리는 고정, 나머지를 시계 방향으로 회전
		last := ring[size-1]
		copy(ring[2:], ring[1:size-1])
		ring[1] = last
	}
	return fixtures
}

// DrawValue seed와 id로 결정되는 추첨 값
func DrawValue(seed, id string) uint64 {
	sum := sha256.Sum256([]byte(seed + ":" + id))
	v, _ := strconv.ParseUint(hex.EncodeToString(sum[:6]), 16, 64)
	return v
}

// DrawOrder 시드 없는 페어링의 추첨 순서. 같은 seed면 항상 같은 순서.
func DrawOrder(ids []string, seed string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return DrawValue(seed, out[i]) < DrawValue(seed, out[j])
	})
	return out
}
