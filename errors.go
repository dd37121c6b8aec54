package embervk

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

var (
	//ErrFenceTimeout is returned when a bounded fence wait exceeds its configured
	//timeout. The frame loop treats this as a device-lost condition and halts
	//rather than retrying the wait.
	ErrFenceTimeout = errors.New("embervk: fence wait timed out, device assumed lost")

	//ErrDescriptorExhausted is returned when a descriptor set allocation fails twice
	//in a row, once from an existing pool and once from a freshly created pool. A
	//fresh pool failing indicates a caller or ratio configuration error, so the
	//allocator does not retry further.
	ErrDescriptorExhausted = errors.New("embervk: descriptor allocation failed on a fresh pool")
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

//NewError wraps a non-success vulkan result code with the caller location
func NewError(ret vk.Result) error {
	if ret != vk.Success {
		pc, _, _, ok := runtime.Caller(1)
		if !ok {
			return fmt.Errorf("vulkan error: %s (%d)",
				vk.Error(ret).Error(), ret)
		}
		frame := newStackFrame(pc)
		return fmt.Errorf("vulkan error: %s (%d) on %s",
			vk.Error(ret).Error(), ret, frame.String())
	}
	return nil
}

type stackFrame struct {
	pc   uintptr
	fn   string
	file string
	line int
}

func newStackFrame(pc uintptr) stackFrame {
	frame := stackFrame{pc: pc}
	if fn := runtime.FuncForPC(pc); fn != nil {
		frame.fn = fn.Name()
		frame.file, frame.line = fn.FileLine(pc)
	}
	return frame
}

func (s stackFrame) String() string {
	return fmt.Sprintf("%s %s:%d", s.fn, s.file, s.line)
}

//Fatal runs the finalizers then logs the error and exits. Used on init paths
//where no caller can make progress, runtime frame errors propagate as values
//instead
func Fatal(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}

		file, ferr := os.OpenFile("fatal_log.txt", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if ferr != nil {
			log.Fatal(err)
		}
		fatal_log := log.New(file, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile)
		fatal_log.Fatal(err)
	}
}

func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%+v", v)
	}
}
