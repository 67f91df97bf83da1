package emu

// LoadStoreUnit implements MIPS word loads and stores.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress computes base register + sign-extended offset.
func (lsu *LoadStoreUnit) EffectiveAddress(base uint8, offset int32) (uint32, error) {
	value, err := lsu.regFile.Read(int(base))
	if err != nil {
		return 0, err
	}
	return uint32(value + offset), nil
}

// LW performs a word load: rt = mem[base + offset]
func (lsu *LoadStoreUnit) LW(rt, base uint8, offset int32) error {
	addr, err := lsu.EffectiveAddress(base, offset)
	if err != nil {
		return err
	}
	return lsu.load(rt, addr)
}

// SW performs a word store: mem[base + offset] = rt
func (lsu *LoadStoreUnit) SW(rt, base uint8, offset int32) error {
	addr, err := lsu.EffectiveAddress(base, offset)
	if err != nil {
		return err
	}

	value, err := lsu.regFile.Read(int(rt))
	if err != nil {
		return err
	}

	return lsu.memory.WriteWord(addr, uint32(value))
}

func (lsu *LoadStoreUnit) load(dst uint8, addr uint32) error {
	value, err := lsu.memory.ReadWord(addr, false)
	if err != nil {
		return err
	}
	return lsu.regFile.Write(int(dst), int32(value))
}
