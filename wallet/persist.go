package wallet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/coinspv/spvchain/wire"
)

// walletMagic is the 4-byte marker prefixing a persisted wallet, the
// format spec.md §6 describes: "magic-marker, version, key count + keys
// ..., pool contents".
var walletMagic = [4]byte{'S', 'P', 'V', 'W'}

// walletFormatVersion is the persisted format's version field.
const walletFormatVersion uint32 = 1

// poolOrder fixes the on-disk ordering of the four pools, so Save/Load
// round-trip deterministically.
var poolOrder = [4]Pool{PoolUnspent, PoolSpent, PoolPending, PoolDead}

// Save writes the wallet's key ring and pool contents to w, in the wire
// format spec.md §6 describes. Round-trip property (spec.md §6, §8):
// Load(Save(wallet)) reproduces the same key ring and pool partition.
func (w *Wallet) Save(out io.Writer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := out.Write(walletMagic[:]); err != nil {
		return err
	}
	if err := writeUint32LE(out, walletFormatVersion); err != nil {
		return err
	}

	keys := w.keys.Keys()
	if err := wire.WriteVarInt(out, uint64(len(keys))); err != nil {
		return err
	}
	for _, kp := range keys {
		if err := wire.WriteVarString(out, kp.Label); err != nil {
			return err
		}
		scalar := kp.PrivateKeyBytes()
		if _, err := out.Write(scalar); err != nil {
			return err
		}
	}

	for _, pool := range poolOrder {
		var txs []*wire.MsgTx
		for _, txid := range w.order {
			e := w.entries[txid]
			if e.pool == pool {
				txs = append(txs, e.tx)
			}
		}
		if err := wire.WriteVarInt(out, uint64(len(txs))); err != nil {
			return err
		}
		for _, tx := range txs {
			if err := tx.Encode(out); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reconstructs a wallet from the format Save writes. logger defaults
// to logrus's standard logger when nil.
func Load(in io.Reader, logger *logrus.Logger) (*Wallet, error) {
	var magic [4]byte
	if _, err := io.ReadFull(in, magic[:]); err != nil {
		return nil, fmt.Errorf("wallet: read magic: %w", err)
	}
	if magic != walletMagic {
		return nil, fmt.Errorf("wallet: bad magic marker %x", magic)
	}

	version, err := readUint32LE(in)
	if err != nil {
		return nil, fmt.Errorf("wallet: read version: %w", err)
	}
	if version != walletFormatVersion {
		return nil, fmt.Errorf("wallet: unsupported persisted format version %d", version)
	}

	ring := NewKeyRing()
	keyCount, err := wire.ReadVarInt(in)
	if err != nil {
		return nil, fmt.Errorf("wallet: read key count: %w", err)
	}
	for i := uint64(0); i < keyCount; i++ {
		label, err := wire.ReadVarString(in)
		if err != nil {
			return nil, fmt.Errorf("wallet: read key[%d] label: %w", i, err)
		}
		var scalar [32]byte
		if _, err := io.ReadFull(in, scalar[:]); err != nil {
			return nil, fmt.Errorf("wallet: read key[%d] scalar: %w", i, err)
		}
		kp, err := keyPairFromBytes(scalar[:], label)
		if err != nil {
			return nil, fmt.Errorf("wallet: reconstruct key[%d]: %w", i, err)
		}
		ring.Add(kp)
	}

	w := New(ring, logger)

	for _, pool := range poolOrder {
		count, err := wire.ReadVarInt(in)
		if err != nil {
			return nil, fmt.Errorf("wallet: read %s pool count: %w", pool, err)
		}
		for i := uint64(0); i < count; i++ {
			tx := &wire.MsgTx{}
			if err := tx.Decode(in); err != nil {
				return nil, fmt.Errorf("wallet: read %s pool tx[%d]: %w", pool, i, err)
			}
			txid := tx.TxHash()
			e := &entry{tx: tx, pool: pool, local: pool == PoolPending}
			w.addEntry(txid, e)
			if pool == PoolPending {
				for _, in := range tx.TxIn {
					w.pendingSpends[keyOf(in.PreviousOutPoint)] = txid
				}
			}
		}
	}

	return w, nil
}

func writeUint32LE(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32LE(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
