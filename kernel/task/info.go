package task

import "encoding/binary"

const (
	// timeValSize is the size of a serialized TimeVal: sec u64, usec u64.
	timeValSize = 16

	// taskInfoTimeOffset is the offset of the time field inside a
	// serialized TaskInfo. The u32 status and the u32 histogram are
	// followed by 4 bytes of padding that keep time 8-byte aligned.
	taskInfoTimeOffset = 4 + 4*MaxSyscallNum + 4

	// taskInfoSize is the size of a serialized TaskInfo.
	taskInfoSize = taskInfoTimeOffset + 8
)

// TimeVal is the value returned by the get_time syscall.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// TimeValFromUS splits a microsecond timestamp into seconds and
// microseconds.
func TimeValFromUS(us uint64) TimeVal {
	return TimeVal{Sec: us / 1_000_000, Usec: us % 1_000_000}
}

// SizeBytes returns the size of the serialized TimeVal.
func (tv *TimeVal) SizeBytes() int { return timeValSize }

// MarshalBytes writes the little-endian layout of tv into dst.
func (tv *TimeVal) MarshalBytes(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:], tv.Sec)
	binary.LittleEndian.PutUint64(dst[8:], tv.Usec)
}

// UnmarshalBytes decodes the layout written by MarshalBytes.
func (tv *TimeVal) UnmarshalBytes(src []byte) {
	tv.Sec = binary.LittleEndian.Uint64(src[0:])
	tv.Usec = binary.LittleEndian.Uint64(src[8:])
}

// TaskInfo is the value returned by the task_info syscall.
type TaskInfo struct {
	Status       Status
	SyscallTimes [MaxSyscallNum]uint32
	Time         uint64
}

// SizeBytes returns the size of the serialized TaskInfo.
func (ti *TaskInfo) SizeBytes() int { return taskInfoSize }

// MarshalBytes writes the little-endian layout of ti into dst.
func (ti *TaskInfo) MarshalBytes(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], uint32(ti.Status))
	for i, count := range ti.SyscallTimes {
		binary.LittleEndian.PutUint32(dst[4+4*i:], count)
	}
	binary.LittleEndian.PutUint32(dst[taskInfoTimeOffset-4:], 0)
	binary.LittleEndian.PutUint64(dst[taskInfoTimeOffset:], ti.Time)
}

// UnmarshalBytes decodes the layout written by MarshalBytes.
func (ti *TaskInfo) UnmarshalBytes(src []byte) {
	ti.Status = Status(binary.LittleEndian.Uint32(src[0:]))
	for i := range ti.SyscallTimes {
		ti.SyscallTimes[i] = binary.LittleEndian.Uint32(src[4+4*i:])
	}
	ti.Time = binary.LittleEndian.Uint64(src[taskInfoTimeOffset:])
}
