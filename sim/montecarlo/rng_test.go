package montecarlo

import (
	"math"
	"testing"
)

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

func TestMulberry32_Deterministic(t *testing.T) {
	a := NewMulberry32(42)
	b := NewMulberry32(42)
	for i := 0; i < 5; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Errorf("draw %d: %v != %v", i, va, vb)
		}
	}
}

func TestMulberry32_Range(t *testing.T) {
	rng := NewMulberry32(1)
	for i := 0; i < 1000; i++ {
		v := rng.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of [0,1): %v", i, v)
		}
	}
}

func TestMulberry32_DifferentSeedsDiverge(t *testing.T) {
	a := NewMulberry32(1).Float64()
	b := NewMulberry32(2).Float64()
	if a == b {
		t.Error("distinct seeds produced identical first draw")
	}
}

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		v1 := rng1.ForParameter("growthRate").Float64()
		v2 := rng2.ForParameter("growthRate").Float64()
		if v1 != v2 {
			t.Errorf("draw %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_ParameterIsolation(t *testing.T) {
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	rngB := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 10; i++ {
		rngA.ForParameter("capacity").Float64()
	}
	for i := 0; i < 5; i++ {
		rngB.ForParameter("growthRate").Float64()
	}

	aGrowthFirst := rngA.ForParameter("growthRate").Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	expectedFirst := fresh.ForParameter("growthRate").Float64()

	if aGrowthFirst != expectedFirst {
		t.Errorf("drawing from capacity perturbed growthRate: got %v, want %v", aGrowthFirst, expectedFirst)
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	a := rng.ForParameter("capacity")
	b := rng.ForParameter("capacity")

	if a != b {
		t.Error("ForParameter returned different instances for same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	seed := int64(12345)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	if rng.Key() != SimulationKey(seed) {
		t.Errorf("Key() = %v, want %v", rng.Key(), seed)
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if len(rng.streams) != 0 {
		t.Errorf("new PartitionedRNG has %d streams, want 0", len(rng.streams))
	}

	rng.ForParameter("capacity")

	if len(rng.streams) != 1 {
		t.Errorf("after one ForParameter call, have %d streams, want 1", len(rng.streams))
	}
}

func TestFnv1a32_Deterministic(t *testing.T) {
	input := "growthRate"
	if fnv1a32(input) != fnv1a32(input) {
		t.Errorf("fnv1a32(%q) not deterministic", input)
	}
}

func TestFnv1a32_NoCollisionAmongSampleNames(t *testing.T) {
	names := []string{"growthRate", "capacity", "param_0", "param_1", "param_100", ""}
	seen := make(map[uint32]string)
	for _, name := range names {
		h := fnv1a32(name)
		if existing, ok := seen[h]; ok {
			t.Errorf("hash collision: %q and %q both hash to %d", name, existing, h)
		}
		seen[h] = name
	}
}

func BenchmarkPartitionedRNG_ForParameter_CacheHit(b *testing.B) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	rng.ForParameter("capacity")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.ForParameter("capacity")
	}
}
