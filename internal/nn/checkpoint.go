package nn

import (
	"fmt"

	"github.com/spinn-ml/spinn/internal/serialization"
)

// Save writes a network's state dictionary to a .spinn file.
//
// The kernel choice is recorded in the file metadata so Load can rebuild a
// usable network without further configuration.
func Save(net *FieldNetwork, path string, metadata map[string]string) error {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata["kernel"] = net.kernel.Name()

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = writer.Close()
	}()

	return writer.WriteStateDict(net.StateDict(), "FieldNetwork", metadata)
}

// Load rebuilds a trained network from a .spinn file.
func Load(path string) (*FieldNetwork, serialization.Header, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, serialization.Header{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	header := reader.Header()
	kernelName, ok := header.Metadata["kernel"]
	if !ok {
		return nil, header, fmt.Errorf("nn: checkpoint %q has no kernel metadata", path)
	}
	kernel, err := KernelByName(kernelName)
	if err != nil {
		return nil, header, err
	}

	state, err := reader.ReadStateDict()
	if err != nil {
		return nil, header, err
	}
	net, err := fieldFromState(state, kernel)
	if err != nil {
		return nil, header, err
	}
	return net, header, nil
}
