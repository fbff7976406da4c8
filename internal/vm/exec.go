package vm

// dispatch executes a single cleaned instruction byte. Every failure path
// panics through vm.halt, per the "fatal, unrecoverable by design" error
// model in spec.md §4.1 -- the emitted code is expected by construction to
// respect all limits, so tripping any of these is an upstream bug.
func (vm *VM) dispatch(op byte) {
	if vm.logf != nil {
		vm.tracef("@%-4d %c  data:%v call:%v", vm.pc, op, vm.data, vm.call)
	}

	switch op {
	case 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j':
		vm.push(uint32(op - 'a'))

	case 'A': // add
		a, b := vm.pop(), vm.pop()
		vm.push(a + b)

	case 'S': // subtract
		a, b := vm.pop(), vm.pop()
		vm.push(a - b)

	case 'M': // multiply
		a, b := vm.pop(), vm.pop()
		vm.push(a * b)

	case 'V': // divide
		a, b := vm.pop(), vm.pop()
		if b == 0 {
			vm.halt("division by zero")
		}
		vm.push(a / b)

	case 'J': // 3-way compare: -1 | 0 | 1 by sign of (a-b)
		a, b := vm.pop(), vm.pop()
		switch {
		case a < b:
			vm.push(^uint32(0))
		case a == b:
			vm.push(0)
		default:
			vm.push(1)
		}

	case 'D': // drop
		vm.pop()

	case 'F': // fetch, n deep (0 = top)
		n := vm.pop()
		vm.push(vm.peek(n))

	case 'H': // fetch-and-remove, n deep
		n := vm.pop()
		vm.push(vm.take(n))

	case 'E': // read memory
		addr := vm.pop()
		vm.push(vm.loadMem(addr))

	case 'K': // write memory
		addr, val := vm.pop(), vm.pop()
		vm.storMem(addr, val)

	case 'I': // print signed decimal integer
		vm.printInt(int32(vm.pop()))

	case 'P': // print low 8 bits as a character
		c := vm.pop()
		vm.printRune(rune(byte(c)))

	case 'C': // call
		f := vm.pop()
		if int(f) >= vm.progLen {
			vm.halt("call to instruction '%d' out of bounds (max %d)", f, vm.progLen-1)
		}
		vm.pushCall(vm.pc)
		// -1 cos the dispatch loop's pc++ lands us on f; if f == 0 this
		// wraps to ^uint32(0), and the following pc++ wraps back to 0.
		vm.pc = f - 1

	case 'R': // return
		vm.pc = vm.popCall()

	case 'G': // relative jump
		ofs := vm.pop()
		target := vm.pc + ofs // wraps mod 2^32, recovering negative offsets
		if int(target) >= vm.progLen {
			vm.halt("jump to instruction '%d' out of bounds (max %d)", target, vm.progLen-1)
		}
		vm.pc = target

	case 'Z': // relative jump if zero
		ofs := vm.pop()
		cond := vm.pop()
		if cond == 0 {
			target := vm.pc + ofs
			if int(target) >= vm.progLen {
				vm.halt("jump to instruction '%d' out of bounds (max %d)", target, vm.progLen-1)
			}
			vm.pc = target
		}

	case 'B': // halt
		vm.pc = uint32(vm.progLen) // the dispatch loop's pc++ would overshoot; set pc to end directly

	case '?', '!':
		// debugger taps: no-ops at execution.

	case ' ', '\n':
		// explicit no-ops.

	default:
		vm.halt("invalid instruction '%c'", op)
	}
}

// peek returns the element n deep (0 = top) without removing it.
func (vm *VM) peek(n uint32) uint32 {
	i := len(vm.data) - 1 - int(n)
	if i < 0 || int(n) >= len(vm.data) {
		vm.halt("fetch stack '%d' out of bounds", n)
	}
	return vm.data[i]
}

// take removes and returns the element n deep (0 = top).
func (vm *VM) take(n uint32) uint32 {
	i := len(vm.data) - 1 - int(n)
	if i < 0 || int(n) >= len(vm.data) {
		vm.halt("fetch stack '%d' out of bounds", n)
	}
	v := vm.data[i]
	vm.data = append(vm.data[:i], vm.data[i+1:]...)
	return v
}
