// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rootproto

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func TestFuzz_BuildPacket(t *testing.T) {
	rng := newFuzzRng(t)

	for round := 0; round < getFuzzRounds(); round++ {
		raw := make([]byte, rng.Intn(PacketSize))
		rng.Read(raw)

		packet, err := BuildPacket(raw)
		if err != nil {
			t.Fatalf("round %d: BuildPacket(% X) error = %v", round, raw, err)
		}
		if len(packet) != PacketSize || !VerifyChecksum(packet) {
			t.Fatalf("round %d: invalid packet % X", round, packet)
		}

		// Any single bit flip is detected by CRC-8
		flipped := append([]byte(nil), packet...)
		flipped[rng.Intn(PacketSize)] ^= 1 << uint(rng.Intn(8))
		if VerifyChecksum(flipped) {
			t.Fatalf("round %d: bit flip not detected in % X", round, flipped)
		}
	}
}

func TestFuzz_DecodersNeverPanic(t *testing.T) {
	rng := newFuzzRng(t)

	for round := 0; round < getFuzzRounds(); round++ {
		data := make([]byte, rng.Intn(PacketSize+4))
		rng.Read(data)
		n := NewNotification(data)

		_, _ = DecodeVersions(n)
		_, _ = DecodeMotionFinished(n)
		_, _ = DecodeMarkerFinished(n)
		_, _ = DecodeCliffEvent(n)
		_ = ValidateNotification(n)
		_ = FormatNotification(n)
	}
}
