package sizeindex

// splitmix64 is the RNG used to pick a skip-list node's level. Ported
// from gosuda-sseuda/internal/oldsepia/splitmix64, a minimal,
// dependency-free generator well suited to seeding per-index state
// without pulling in math/rand.
const splitmix64Increment = 0x9e3779b97f4a7c15

func splitmix64Next(x0 uint64) uint64 {
	x0 = (x0 ^ (x0 >> 30)) * 0xbf58476d1ce4e5b9
	x0 = (x0 ^ (x0 >> 27)) * 0x94d049bb133111eb
	return x0 ^ (x0 >> 31)
}

func splitmix64(state *uint64) uint64 {
	*state += splitmix64Increment
	return splitmix64Next(*state)
}
