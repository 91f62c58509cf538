// Package asm implements the tiny fixed-width binary encoding contract
// code is persisted and hashed as: each services/riscv/vm.Instruction
// serializes to 12 bytes (opcode, three register indices, a 64-bit
// immediate), matching the "serialized instruction script, not raw ELF"
// shape SPEC_FULL.md commits this VM to.
package asm

import (
	"encoding/binary"
	"fmt"

	"servicechain/services/riscv/vm"
)

const instructionWidth = 1 + 1 + 1 + 1 + 8

// Encode serializes prog into its on-disk byte form.
func Encode(prog vm.Program) []byte {
	out := make([]byte, 0, len(prog)*instructionWidth)
	for _, ins := range prog {
		buf := make([]byte, instructionWidth)
		buf[0] = byte(ins.Op)
		buf[1] = ins.Rd
		buf[2] = ins.Rs1
		buf[3] = ins.Rs2
		binary.BigEndian.PutUint64(buf[4:], uint64(ins.Imm))
		out = append(out, buf...)
	}
	return out
}

// Decode parses code back into a Program; a length not a multiple of the
// instruction width is a malformed-code error.
func Decode(code []byte) (vm.Program, error) {
	if len(code)%instructionWidth != 0 {
		return nil, fmt.Errorf("asm: code length %d is not a multiple of the %d-byte instruction width", len(code), instructionWidth)
	}
	prog := make(vm.Program, 0, len(code)/instructionWidth)
	for i := 0; i < len(code); i += instructionWidth {
		buf := code[i : i+instructionWidth]
		prog = append(prog, vm.Instruction{
			Op:  vm.Op(buf[0]),
			Rd:  buf[1],
			Rs1: buf[2],
			Rs2: buf[3],
			Imm: int64(binary.BigEndian.Uint64(buf[4:])),
		})
	}
	return prog, nil
}

// LoadImm builds an OpLoadImm instruction: Rd = imm.
func LoadImm(rd uint8, imm int64) vm.Instruction {
	return vm.Instruction{Op: vm.OpLoadImm, Rd: rd, Imm: imm}
}

// Move builds an OpMove instruction: Rd = Rs1.
func Move(rd, rs1 uint8) vm.Instruction {
	return vm.Instruction{Op: vm.OpMove, Rd: rd, Rs1: rs1}
}

// StoreMemAt builds an OpStoreMem instruction: mem[Rs1+imm:+8] = Rd.
func StoreMemAt(rd, rs1 uint8, imm int64) vm.Instruction {
	return vm.Instruction{Op: vm.OpStoreMem, Rd: rd, Rs1: rs1, Imm: imm}
}

// Ecall builds an OpEcall instruction (syscall number must already be in
// a7/x17 via a prior LoadImm).
func Ecall() vm.Instruction {
	return vm.Instruction{Op: vm.OpEcall}
}

// Halt builds an OpHalt instruction: exit code = Rd's value.
func Halt(rd uint8) vm.Instruction {
	return vm.Instruction{Op: vm.OpHalt, Rd: rd}
}
