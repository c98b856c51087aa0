package vm

import "fmt"

// run is the dispatch loop: fetch a byte from the current frame, decode,
// execute, until the last frame returns.
func (vm *VM) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == errValueStackOverflow {
				err = vm.runtimeError("Stack overflow.")
				return
			}
			panic(r)
		}
	}()

	frame := vm.currentFrame()

	for {
		if vm.options.Trace {
			vm.traceInstruction(frame)
		}

		op := Opcode(vm.readByte(frame))

		switch op {
		case OP_CONSTANT:
			vm.push(vm.readConstant(frame))

		case OP_NIL:
			vm.push(NilVal())

		case OP_TRUE:
			vm.push(BoolVal(true))

		case OP_FALSE:
			vm.push(BoolVal(false))

		case OP_POP:
			vm.pop()

		case OP_GET_LOCAL:
			slot := int(vm.readByte(frame))
			vm.push(vm.stack[frame.base+slot])

		case OP_SET_LOCAL:
			slot := int(vm.readByte(frame))
			vm.stack[frame.base+slot] = vm.peek(0)

		case OP_GET_GLOBAL:
			name := vm.readString(frame)
			value, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(value)

		case OP_DEFINE_GLOBAL:
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case OP_SET_GLOBAL:
			name := vm.readString(frame)
			if vm.globals.Set(name, vm.peek(0)) {
				// Assignment must not create globals; undo the insert
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name)
			}

		case OP_GET_UPVALUE:
			slot := int(vm.readByte(frame))
			upvalue := frame.closure.Upvalues[slot]
			if upvalue.Location != -1 {
				vm.push(vm.stack[upvalue.Location])
			} else {
				vm.push(upvalue.Closed)
			}

		case OP_SET_UPVALUE:
			slot := int(vm.readByte(frame))
			upvalue := frame.closure.Upvalues[slot]
			if upvalue.Location != -1 {
				vm.stack[upvalue.Location] = vm.peek(0)
			} else {
				upvalue.Closed = vm.peek(0)
			}

		case OP_EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(a.Equals(b)))

		case OP_GREATER:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(BoolVal(a > b))

		case OP_LESS:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(BoolVal(a < b))

		case OP_ADD:
			switch {
			case vm.peek(0).IsString() && vm.peek(1).IsString():
				b := vm.pop().AsString()
				a := vm.pop().AsString()
				chars := make([]byte, 0, len(a.Chars)+len(b.Chars))
				chars = append(chars, a.Chars...)
				chars = append(chars, b.Chars...)
				vm.push(ObjVal(takeString(&vm.heap, &vm.strings, chars)))
			case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
				b := vm.pop().AsNumber()
				a := vm.pop().AsNumber()
				vm.push(NumberVal(a + b))
			default:
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case OP_SUBTRACT:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(NumberVal(a - b))

		case OP_MULTIPLY:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(NumberVal(a * b))

		case OP_DIVIDE:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(NumberVal(a / b))

		case OP_NOT:
			vm.push(BoolVal(vm.pop().IsFalsey()))

		case OP_NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberVal(-vm.pop().AsNumber()))

		case OP_PRINT:
			fmt.Fprintln(vm.out, vm.pop().Inspect())

		case OP_JUMP:
			offset := vm.readShort(frame)
			frame.ip += offset

		case OP_JUMP_IF_FALSE:
			offset := vm.readShort(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}

		case OP_LOOP:
			offset := vm.readShort(frame)
			frame.ip -= offset

		case OP_CALL:
			argCount := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case OP_CLOSURE:
			function := vm.readConstant(frame).Obj.(*ObjFunction)
			closure := newClosure(&vm.heap, function)
			vm.push(ObjVal(closure))
			for i := range closure.Upvalues {
				isLocal := vm.readByte(frame)
				index := int(vm.readByte(frame))
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case OP_CLOSE_UPVALUE:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case OP_RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				// The script closure itself is still on the stack
				vm.pop()
				return nil
			}
			vm.sp = frame.base
			vm.push(result)
			frame = vm.currentFrame()

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

// traceInstruction dumps the stack and the instruction about to execute
func (vm *VM) traceInstruction(frame *CallFrame) {
	fmt.Fprint(vm.errOut, "          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(vm.errOut, "[ %s ]", vm.stack[i].Inspect())
	}
	fmt.Fprintln(vm.errOut)
	DisassembleInstruction(vm.errOut, frame.closure.Function.Chunk, frame.ip)
}
