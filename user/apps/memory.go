package apps

import (
	"gophercore/kernel/mm"
	"gophercore/user"
)

func init() {
	register("mmap_rw", mmapRW)
	register("mmap_overlap", mmapOverlap)
	register("munmap_gap", munmapGap)
	register("sbrk_grow", sbrkGrow)
}

func mmapRW(env *user.Env) int32 {
	const (
		start  = mmapBase
		length = 3*mm.PageSize - 1
	)

	if !expect(env, env.Mmap(start, length, 0b011) == 0, "mmap read/write") {
		return 1
	}

	for addr := uintptr(start); addr < start+length-8; addr += 1024 {
		env.StoreUint64(addr, uint64(addr))
	}
	for addr := uintptr(start); addr < start+length-8; addr += 1024 {
		if got := env.LoadUint64(addr); !expect(env, got == uint64(addr), "read back stored value", "addr", addr, "got", got) {
			return 1
		}
	}

	if !expect(env, env.Munmap(start, length) == 0, "munmap") {
		return 1
	}

	// Misaligned requests and bad ports are rejected
	ok := expect(env, env.Mmap(start+1, mm.PageSize, 0b011) == -1, "misaligned mmap") &&
		expect(env, env.Mmap(start, mm.PageSize, 0b1001) == -1, "port with high bits") &&
		expect(env, env.Mmap(start, mm.PageSize, 0) == -1, "port without access") &&
		expect(env, env.Munmap(start+1, mm.PageSize) == -1, "misaligned munmap")
	if !ok {
		return 1
	}
	return 0
}

func mmapOverlap(env *user.Env) int32 {
	const start = mmapBase + mm.PageSize

	ok := expect(env, env.Mmap(start, mm.PageSize, 0b011) == 0, "first mmap") &&
		expect(env, env.Mmap(start, mm.PageSize, 0b001) == -1, "overlapping mmap") &&
		expect(env, env.Munmap(start, mm.PageSize) == 0, "munmap") &&
		expect(env, env.Mmap(start, mm.PageSize, 0b001) == 0, "mmap after munmap") &&
		expect(env, env.Munmap(start, mm.PageSize) == 0, "final munmap")
	if !ok {
		return 1
	}
	return 0
}

func munmapGap(env *user.Env) int32 {
	const start = mmapBase

	ok := expect(env, env.Mmap(start, mm.PageSize, 0b011) == 0, "mmap first page") &&
		expect(env, env.Mmap(start+2*mm.PageSize, mm.PageSize, 0b011) == 0, "mmap third page")
	if !ok {
		return 1
	}

	env.StoreUint64(start, 0xfeed)
	env.StoreUint64(start+2*mm.PageSize, 0xbeef)

	if !expect(env, env.Munmap(start, 3*mm.PageSize) == -1, "munmap over a gap") {
		return 1
	}

	// Nothing was removed
	if !expect(env, env.LoadUint64(start) == 0xfeed && env.LoadUint64(start+2*mm.PageSize) == 0xbeef, "mappings intact") {
		return 1
	}

	ok = expect(env, env.Munmap(start, mm.PageSize) == 0, "munmap first page") &&
		expect(env, env.Munmap(start+2*mm.PageSize, mm.PageSize) == 0, "munmap third page")
	if !ok {
		return 1
	}
	return 0
}

func sbrkGrow(env *user.Env) int32 {
	bottom := env.Sbrk(0)
	if !expect(env, bottom > 0, "sbrk(0) returns the break") {
		return 1
	}

	if !expect(env, env.Sbrk(int32(mm.PageSize)) == bottom, "grow returns the old break") {
		return 1
	}

	heap := uintptr(bottom)
	env.StoreUint64(heap, 42)
	env.StoreUint64(heap+mm.PageSize-8, 43)
	if !expect(env, env.LoadUint64(heap) == 42 && env.LoadUint64(heap+mm.PageSize-8) == 43, "heap is usable") {
		return 1
	}

	ok := expect(env, env.Sbrk(-int32(mm.PageSize)) == bottom+int64(mm.PageSize), "shrink returns the old break") &&
		expect(env, env.Sbrk(-1) == -1, "break below the heap bottom") &&
		expect(env, env.Sbrk(0) == bottom, "break unchanged after a failed call")
	if !ok {
		return 1
	}
	return 0
}
