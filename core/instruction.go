package core

// InstructionKind discriminates the register machine's closed, five-
// variant instruction set. Per §4.3/§9 this sum is closed: new behaviors
// go behind Transform with richer morphism values, never a sixth variant
// without a format version bump.
type InstructionKind byte

const (
	OpTransform InstructionKind = iota
	OpAlloc
	OpConsume
	OpCompose
	OpTensor
)

func (k InstructionKind) String() string {
	switch k {
	case OpTransform:
		return "Transform"
	case OpAlloc:
		return "Alloc"
	case OpConsume:
		return "Consume"
	case OpCompose:
		return "Compose"
	case OpTensor:
		return "Tensor"
	default:
		return "Unknown"
	}
}

// Instruction is one step of a program. Reg1/Reg2 carry different meanings
// per Kind (documented on each constructor below); Output is always the
// register the instruction writes to.
type Instruction struct {
	Kind    InstructionKind
	Reg1    RegisterId
	Reg2    RegisterId
	Output  RegisterId
	hasReg2 bool
}

// Transform{morph, input, output}: apply morph to input, producing m∘i.
func Transform(morph, input, output RegisterId) Instruction {
	return Instruction{Kind: OpTransform, Reg1: morph, Reg2: input, Output: output, hasReg2: true}
}

// Alloc{type, init, output}: allocate a fresh resource of the given type
// initialized with the given value.
func Alloc(typeReg, initReg, output RegisterId) Instruction {
	return Instruction{Kind: OpAlloc, Reg1: typeReg, Reg2: initReg, Output: output, hasReg2: true}
}

// Consume{resource, output}: consume a resource, publish its nullifier,
// and produce a consumption receipt.
func Consume(resource, output RegisterId) Instruction {
	return Instruction{Kind: OpConsume, Reg1: resource, Output: output, hasReg2: false}
}

// Compose{first, second, output}: produce f∘g from two morphisms.
func Compose(first, second, output RegisterId) Instruction {
	return Instruction{Kind: OpCompose, Reg1: first, Reg2: second, Output: output, hasReg2: true}
}

// Tensor{left, right, output}: produce the monoidal product of two values.
func Tensor(left, right, output RegisterId) Instruction {
	return Instruction{Kind: OpTensor, Reg1: left, Reg2: right, Output: output, hasReg2: true}
}

// Inputs returns the registers this instruction reads from.
func (in Instruction) Inputs() []RegisterId {
	if in.hasReg2 {
		return []RegisterId{in.Reg1, in.Reg2}
	}
	return []RegisterId{in.Reg1}
}

// AllRegisters returns every register id this instruction mentions,
// inputs and output, for the bounds check in program validation.
func (in Instruction) AllRegisters() []RegisterId {
	return append(in.Inputs(), in.Output)
}

// AliasesOutput reports whether Output coincides with any input register,
// which program validation must reject before step 0 executes.
func (in Instruction) AliasesOutput() bool {
	for _, r := range in.Inputs() {
		if r == in.Output {
			return true
		}
	}
	return false
}
