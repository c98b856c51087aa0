package vm

// callValue dispatches a call on any value. Closures push a frame; natives
// run immediately, their result replacing the callee slot.
func (vm *VM) callValue(callee Value, argCount int) error {
	if callee.IsObj() {
		switch obj := callee.Obj.(type) {
		case *ObjClosure:
			return vm.call(obj, argCount)

		case *ObjNative:
			if argCount != obj.Arity {
				return vm.runtimeError("Expected %d arguments but got %d.", obj.Arity, argCount)
			}
			args := vm.stack[vm.sp-argCount : vm.sp]
			result := obj.Fn(args)
			vm.sp -= argCount + 1
			vm.push(result)
			return nil
		}
	}
	return vm.runtimeError("Can only call functions.")
}

// call pushes a frame for a closure. The callee and its arguments are
// already in place on the stack, so the frame's base points at the callee.
func (vm *VM) call(closure *ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.",
			closure.Function.Arity, argCount)
	}

	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow.")
	}

	vm.frames[vm.frameCount] = CallFrame{
		closure: closure,
		ip:      0,
		base:    vm.sp - argCount - 1,
	}
	vm.frameCount++
	return nil
}
