package corelf

// cacheLinePadSize is the assumed CPU cache line size used to keep hot,
// independently-updated fields of the stack/arena off the same line.
//
// Credits -> github.com/alphadose/itogami (pool.go, pool_func.go), which
// pads every hot field of its Pool struct the same way.
const cacheLinePadSize = 64
