package frame

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/soypat/seqs/eth"
)

// Description is the decoded view of a frame used for display.
type Description struct {
	Destination net.HardwareAddr
	Source      net.HardwareAddr
	EtherType   uint16
	PayloadLen  int
	Layers      []string
}

// ParseHeader reads the Ethernet header of b. The filler bytes at offsets 12
// and 13 are returned as the EtherType, which is what a receiver sees.
func ParseHeader(b []byte) (Header, uint16, error) {
	if len(b) < 14 {
		return Header{}, 0, fmt.Errorf("frame too short for ethernet header: %d bytes", len(b))
	}
	ehdr := eth.DecodeEthernetHeader(b)
	return Header{Destination: ehdr.Destination, Source: ehdr.Source}, ehdr.SizeOrEtherType, nil
}

// Describe decodes b with gopacket the way a capture on the wire would.
func Describe(b []byte) (*Description, error) {
	pkt := gopacket.NewPacket(b, layers.LayerTypeEthernet, gopacket.DecodeOptions{NoCopy: true})
	ethLayer, ok := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok {
		if fail := pkt.ErrorLayer(); fail != nil {
			return nil, fmt.Errorf("decode ethernet: %w", fail.Error())
		}
		return nil, errors.New("decode ethernet: no ethernet layer")
	}

	d := &Description{
		Destination: ethLayer.DstMAC,
		Source:      ethLayer.SrcMAC,
		EtherType:   uint16(ethLayer.EthernetType),
		PayloadLen:  len(ethLayer.Payload),
	}
	for _, l := range pkt.Layers() {
		d.Layers = append(d.Layers, l.LayerType().String())
	}
	return d, nil
}

func (d *Description) String() string {
	return fmt.Sprintf("%s > %s, ethertype 0x%04x, payload %d bytes",
		d.Source, d.Destination, d.EtherType, d.PayloadLen)
}
