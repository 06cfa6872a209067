package ogg

// Page checksums use CRC-32 with polynomial 0x04c11db7, zero initial
// value, no final inversion, and no bit reflection, computed over the
// entire page with the checksum field zeroed. hash/crc32 only implements
// reflected variants, so the table lives here.

var crcTable = makeCRCTable()

func makeCRCTable() *[256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for k := 0; k < 8; k++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return &table
}

// crcUpdate folds b into a running checksum.
func crcUpdate(crc uint32, b []byte) uint32 {
	for _, v := range b {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^v]
	}
	return crc
}
