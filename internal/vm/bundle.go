package vm

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// BundleVersion is the current on-disk program format.
const BundleVersion = 1

// Bundle is a compiled program together with the source it came from, in a
// form that can be written to disk and executed later without recompiling.
type Bundle struct {
	Version int           `yaml:"version"`
	Source  string        `yaml:"source,omitempty"`
	Program *Program      `yaml:"-"`
	Code    []Instruction `yaml:"code"`
	Columns []int         `yaml:"columns,flow,omitempty"`
}

func NewBundle(source string, program *Program) *Bundle {
	return &Bundle{
		Version: BundleVersion,
		Source:  source,
		Program: program,
	}
}

// Serialize encodes the bundle as YAML.
func (b *Bundle) Serialize() ([]byte, error) {
	out := *b
	if b.Program != nil {
		out.Code = b.Program.Code
		out.Columns = b.Program.Columns
	}
	if out.Code == nil {
		out.Code = []Instruction{}
	}
	if out.Version == 0 {
		out.Version = BundleVersion
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo writes the serialized bundle to w.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	data, err := b.Serialize()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// DeserializeBundle decodes a YAML bundle and validates its program.
func DeserializeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d (expected %d)", b.Version, BundleVersion)
	}
	b.Program = &Program{Code: b.Code, Columns: b.Columns}
	if b.Program.Code == nil {
		b.Program.Code = []Instruction{}
	}
	if err := b.Program.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// ReadBundle reads and decodes a bundle from r.
func ReadBundle(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return DeserializeBundle(data)
}

// instructionDoc is the YAML shape of an Instruction. Only the fields used
// by the opcode are emitted.
type instructionDoc struct {
	Op     string  `yaml:"op"`
	Dst    *uint8  `yaml:"dst,omitempty"`
	Src    *uint8  `yaml:"src,omitempty"`
	Src2   *uint8  `yaml:"src2,omitempty"`
	Imm    *int16  `yaml:"imm,omitempty"`
	Target *uint16 `yaml:"target,omitempty"`
}

func (i Instruction) MarshalYAML() (interface{}, error) {
	if !i.Op.Valid() {
		return nil, fmt.Errorf("cannot encode unknown opcode %d", byte(i.Op))
	}
	doc := instructionDoc{Op: i.Op.String()}
	for _, o := range i.Op.layout() {
		switch o {
		case operandDst:
			v := uint8(i.Dst)
			doc.Dst = &v
		case operandSrc:
			v := uint8(i.Src)
			doc.Src = &v
		case operandSrc2:
			v := uint8(i.Src2)
			doc.Src2 = &v
		case operandImm:
			v := i.Imm
			doc.Imm = &v
		case operandTarget:
			v := uint16(i.Target)
			doc.Target = &v
		}
	}
	return doc, nil
}

func (i *Instruction) UnmarshalYAML(value *yaml.Node) error {
	var doc instructionDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	op, err := ParseOpcode(doc.Op)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	inst := Instruction{Op: op}
	for _, o := range op.layout() {
		missing := false
		switch o {
		case operandDst:
			missing = doc.Dst == nil
			if !missing {
				inst.Dst = Register(*doc.Dst)
			}
		case operandSrc:
			missing = doc.Src == nil
			if !missing {
				inst.Src = Register(*doc.Src)
			}
		case operandSrc2:
			missing = doc.Src2 == nil
			if !missing {
				inst.Src2 = Register(*doc.Src2)
			}
		case operandImm:
			// An omitted immediate is zero.
			if doc.Imm != nil {
				inst.Imm = *doc.Imm
			}
		case operandTarget:
			missing = doc.Target == nil
			if !missing {
				inst.Target = Address(*doc.Target)
			}
		}
		if missing {
			return fmt.Errorf("line %d: %s is missing an operand", value.Line, op)
		}
	}
	*i = inst
	return nil
}
