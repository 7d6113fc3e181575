package strategy

// mt19937 es el generador Mersenne Twister de 32 bits con la siembra por
// array de la implementación de referencia. Sembrado con seedInt produce la
// misma secuencia que random.Random(seed) de CPython, lo que mantiene los
// pesos de VIP idénticos entre ejecuciones y plataformas.
type mt19937 struct {
	mt  [mtN]uint32
	idx int
}

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

func newMT19937(seed uint64) *mt19937 {
	g := &mt19937{}
	g.seedArray(splitSeed(seed))
	return g
}

// splitSeed divide la semilla en palabras de 32 bits, menos significativa primero.
func splitSeed(seed uint64) []uint32 {
	if seed == 0 {
		return []uint32{0}
	}
	var key []uint32
	for seed > 0 {
		key = append(key, uint32(seed&0xffffffff))
		seed >>= 32
	}
	return key
}

func (g *mt19937) seed(s uint32) {
	g.mt[0] = s
	for i := 1; i < mtN; i++ {
		prev := g.mt[i-1]
		g.mt[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	g.idx = mtN
}

func (g *mt19937) seedArray(key []uint32) {
	g.seed(19650218)
	i, j := 1, 0
	k := mtN
	if len(key) > k {
		k = len(key)
	}
	for ; k > 0; k-- {
		prev := g.mt[i-1]
		g.mt[i] = (g.mt[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= mtN {
			g.mt[0] = g.mt[mtN-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = mtN - 1; k > 0; k-- {
		prev := g.mt[i-1]
		g.mt[i] = (g.mt[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= mtN {
			g.mt[0] = g.mt[mtN-1]
			i = 1
		}
	}
	g.mt[0] = 0x80000000
}

func (g *mt19937) uint32() uint32 {
	if g.idx >= mtN {
		g.twist()
	}
	y := g.mt[g.idx]
	g.idx++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func (g *mt19937) twist() {
	for i := 0; i < mtN; i++ {
		y := (g.mt[i] & mtUpperMask) | (g.mt[(i+1)%mtN] & mtLowerMask)
		next := g.mt[(i+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			next ^= mtMatrixA
		}
		g.mt[i] = next
	}
	g.idx = 0
}

// float64 devuelve un valor en [0, 1) con 53 bits de resolución.
func (g *mt19937) float64() float64 {
	a := g.uint32() >> 5
	b := g.uint32() >> 6
	return (float64(a)*67108864.0 + float64(b)) * (1.0 / 9007199254740992.0)
}

// uniform devuelve un valor en [lo, hi).
func (g *mt19937) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.float64()
}
