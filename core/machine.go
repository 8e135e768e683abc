package core

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Default ceilings. These form the machine's public contract (§4.3): a
// program, its register file, its live resource count, and its dynamic
// step budget are all bounded so execution is reproducible enough to
// back a zero-knowledge proof of correct execution. Tests construct a
// Machine with tighter ceilings via MachineConfig to exercise the bounds
// without allocating the production-sized arrays.
const (
	DefaultMaxInstructions  = 4096
	DefaultMaxRegisters     = 256
	DefaultMaxResources     = 1024
	DefaultMaxExecutionSteps = 4096
)

// MachineConfig carries the four ceilings, loaded from YAML in the ambient
// config layer (config.go) or supplied directly by tests. The logger and
// telemetry sink are passed to NewMachine separately.
type MachineConfig struct {
	MaxInstructions   int `yaml:"max_instructions"`
	MaxRegisters      int `yaml:"max_registers"`
	MaxResources      int `yaml:"max_resources"`
	MaxExecutionSteps int `yaml:"max_execution_steps"`
}

func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		MaxInstructions:   DefaultMaxInstructions,
		MaxRegisters:      DefaultMaxRegisters,
		MaxResources:      DefaultMaxResources,
		MaxExecutionSteps: DefaultMaxExecutionSteps,
	}
}

// Machine failure taxonomy (§4.3).
type ProgramTooLarge struct{ N int }

func (e *ProgramTooLarge) Error() string { return fmt.Sprintf("program too large: %d instructions", e.N) }

type InvalidInstruction struct {
	Index   int
	Message string
}

func (e *InvalidInstruction) Error() string {
	return fmt.Sprintf("invalid instruction at %d: %s", e.Index, e.Message)
}

type EmptyRegister struct{ Id RegisterId }

func (e *EmptyRegister) Error() string { return fmt.Sprintf("register %d is empty", e.Id) }

var ErrExecutionLimitExceeded = fmt.Errorf("execution limit exceeded")

// ResultKind distinguishes the three terminal states an execution can end
// in; the trace is always finalized and returned regardless of which one
// is reached.
type ResultKind byte

const (
	ResultSuccess ResultKind = iota
	ResultError
	ResultTimeout
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultError:
		return "error"
	case ResultTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

type ExecutionResult struct {
	Kind          ResultKind
	Message       string
	StepsExecuted uint64
	Trace         *ExecutionTrace
}

// Machine is the bounded, deterministic register machine executor. It is
// strictly sequential: once Execute begins there are no suspension
// points, a deliberate requirement for reproducible trace generation
// (§5).
type Machine struct {
	cfg       MachineConfig
	Registers *RegisterFile
	Resources *ResourceStore
	log       *logrus.Entry
	telemetry *Telemetry
	errored   bool
}

func NewMachine(cfg MachineConfig, log *logrus.Logger, tel *Telemetry) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if tel == nil {
		tel = NewTelemetry()
	}
	return &Machine{
		cfg:       cfg,
		Registers: NewRegisterFile(cfg.MaxRegisters),
		Resources: NewResourceStore(cfg.MaxResources),
		log:       log.WithField("component", "machine"),
		telemetry: tel,
	}
}

// ValidateProgram runs the three pre-execution checks of §4.3: size
// ceiling, in-bounds registers, and no output/input aliasing. It mutates
// nothing, matching the propagation policy that validation failures leave
// no state changed.
func ValidateProgram(program []Instruction, maxInstructions, maxRegisters int) error {
	if len(program) > maxInstructions {
		return &ProgramTooLarge{N: len(program)}
	}
	for i, instr := range program {
		for _, r := range instr.AllRegisters() {
			if int(r) >= maxRegisters {
				return &InvalidInstruction{Index: i, Message: fmt.Sprintf("register %d out of bounds", r)}
			}
		}
		if instr.AliasesOutput() {
			return &InvalidInstruction{Index: i, Message: "Register aliasing not allowed"}
		}
	}
	return nil
}

// Execute validates the program, then runs it to completion, first error,
// or step-limit exhaustion. The returned trace is always finalized. A
// pre-execution validation failure returns (nil, err) with no trace: no
// instruction ever ran.
func (m *Machine) Execute(program []Instruction) (*ExecutionResult, error) {
	if err := ValidateProgram(program, m.cfg.MaxInstructions, m.cfg.MaxRegisters); err != nil {
		return nil, err
	}

	trace := newTrace(StateSnapshot{
		Registers: m.Registers.Snapshot(),
		Resources: m.Resources.Snapshot(),
	})

	var steps uint64
	for i, instr := range program {
		if steps >= uint64(m.cfg.MaxExecutionSteps) {
			trace.finalize(m.snapshot())
			return &ExecutionResult{Kind: ResultTimeout, StepsExecuted: steps, Trace: trace}, nil
		}

		if err := m.stepPreValidate(instr); err != nil {
			trace.finalize(m.snapshot())
			m.errored = true
			return &ExecutionResult{Kind: ResultError, Message: err.Error(), StepsExecuted: steps, Trace: trace}, nil
		}

		if err := m.runInstruction(instr); err != nil {
			trace.finalize(m.snapshot())
			m.errored = true
			return &ExecutionResult{Kind: ResultError, Message: err.Error(), StepsExecuted: steps, Trace: trace}, nil
		}

		steps++
		m.telemetry.StepsExecuted.Inc()
		m.telemetry.ResourcesLive.Set(float64(m.Resources.Count()))

		trace.append(TraceStep{StepNo: uint64(i), Timestamp: time.Now().UnixNano(), Instruction: instr})

		if m.Resources.Count() > m.cfg.MaxResources {
			trace.finalize(m.snapshot())
			m.errored = true
			return &ExecutionResult{Kind: ResultError, Message: ErrResourceLimitExceeded.Error(), StepsExecuted: steps, Trace: trace}, nil
		}
	}

	trace.finalize(m.snapshot())
	return &ExecutionResult{Kind: ResultSuccess, StepsExecuted: steps, Trace: trace}, nil
}

func (m *Machine) snapshot() StateSnapshot {
	return StateSnapshot{Registers: m.Registers.Snapshot(), Resources: m.Resources.Snapshot()}
}

// stepPreValidate runs the per-step checks of §4.3: inputs non-empty,
// room for a new resource, room in the register file, and the write-once
// precondition on the output register.
func (m *Machine) stepPreValidate(instr Instruction) error {
	for _, r := range instr.Inputs() {
		_, ok, err := m.Registers.Get(r)
		if err != nil {
			return err
		}
		if !ok {
			return &EmptyRegister{Id: r}
		}
	}
	if m.Resources.Count() >= m.cfg.MaxResources {
		return ErrResourceLimitExceeded
	}
	if m.Registers.AllocatedCount() >= m.cfg.MaxRegisters {
		return &RegisterError{Kind: "register file full"}
	}
	if _, occupied, _ := m.Registers.Get(instr.Output); occupied {
		return &RegisterError{Kind: fmt.Sprintf("output register %d already allocated", instr.Output)}
	}
	return nil
}

func (m *Machine) runInstruction(instr Instruction) error {
	switch instr.Kind {
	case OpTransform:
		return m.doTransform(instr)
	case OpAlloc:
		return m.doAlloc(instr)
	case OpConsume:
		return m.doConsume(instr)
	case OpCompose:
		return m.doCompose(instr)
	case OpTensor:
		return m.doTensor(instr)
	default:
		return &ResourceError{Message: "unknown instruction kind"}
	}
}

func (m *Machine) resourceAt(reg RegisterId) (Resource, error) {
	id, ok, err := m.Registers.Get(reg)
	if err != nil {
		return Resource{}, err
	}
	if !ok {
		return Resource{}, &EmptyRegister{Id: reg}
	}
	r, ok := m.Resources.Get(id)
	if !ok {
		return Resource{}, &ResourceError{Message: fmt.Sprintf("register %d points at unknown resource", reg)}
	}
	return r, nil
}

// doTransform reads a morphism from Reg1 and an input from Reg2, producing
// a resource representing m∘i (application). At this level, with no
// formal morphism evaluator, application is represented structurally as
// the pairing of the two operand values under a Product type of the two
// operand types; the morphism is not evaluated.
func (m *Machine) doTransform(instr Instruction) error {
	morph, err := m.resourceAt(instr.Reg1)
	if err != nil {
		return err
	}
	input, err := m.resourceAt(instr.Reg2)
	if err != nil {
		return err
	}
	result := NewProductValue(morph.Value, input.Value)
	resultType := NewProductType(morph.Type, input.Type)
	id, err := m.Resources.Create(resultType, result)
	if err != nil {
		return err
	}
	return m.Registers.Set(instr.Output, id)
}

// doAlloc reads a type reference from Reg1 (the resource's Type field
// carries the descriptor) and an initializer from Reg2, allocating a
// fresh resource of that type with that value.
func (m *Machine) doAlloc(instr Instruction) error {
	typeRes, err := m.resourceAt(instr.Reg1)
	if err != nil {
		return err
	}
	initRes, err := m.resourceAt(instr.Reg2)
	if err != nil {
		return err
	}
	id, err := m.Resources.Create(typeRes.Type, initRes.Value)
	if err != nil {
		return err
	}
	return m.Registers.Set(instr.Output, id)
}

// doConsume consumes the resource at Reg1, publishes its nullifier, clears
// Reg1, and produces a consumption receipt at Output.
func (m *Machine) doConsume(instr Instruction) error {
	id, ok, err := m.Registers.Get(instr.Reg1)
	if err != nil {
		return err
	}
	if !ok {
		return &EmptyRegister{Id: instr.Reg1}
	}
	nullifier, err := m.Resources.Consume(id)
	if err != nil {
		return err
	}
	if err := m.Registers.Clear(instr.Reg1); err != nil {
		return err
	}
	receiptType := NewSymbolType()
	receiptValue := NewSymbolValue(string(nullifier))
	receiptId, err := m.Resources.Create(receiptType, receiptValue)
	if err != nil {
		return err
	}
	return m.Registers.Set(instr.Output, receiptId)
}

// doCompose reads morphisms f (Reg1) and g (Reg2), producing f∘g.
func (m *Machine) doCompose(instr Instruction) error {
	f, err := m.resourceAt(instr.Reg1)
	if err != nil {
		return err
	}
	g, err := m.resourceAt(instr.Reg2)
	if err != nil {
		return err
	}
	resultType := NewLinearFunctionType(g.Type, f.Type)
	resultValue := NewProductValue(f.Value, g.Value)
	id, err := m.Resources.Create(resultType, resultValue)
	if err != nil {
		return err
	}
	return m.Registers.Set(instr.Output, id)
}

// doTensor reads values l (Reg1) and r (Reg2), producing their monoidal
// product.
func (m *Machine) doTensor(instr Instruction) error {
	l, err := m.resourceAt(instr.Reg1)
	if err != nil {
		return err
	}
	r, err := m.resourceAt(instr.Reg2)
	if err != nil {
		return err
	}
	resultType := NewProductType(l.Type, r.Type)
	resultValue := NewProductValue(l.Value, r.Value)
	id, err := m.Resources.Create(resultType, resultValue)
	if err != nil {
		return err
	}
	return m.Registers.Set(instr.Output, id)
}

// Errored reports whether the machine halted in an error state, per §3's
// lifecycle note that execution errors leave no rollback.
func (m *Machine) Errored() bool { return m.errored }
