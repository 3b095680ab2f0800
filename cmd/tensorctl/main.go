package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-tensor/bridge"
	"github.com/wippyai/wasm-tensor/config"
	"github.com/wippyai/wasm-tensor/native"
	"github.com/wippyai/wasm-tensor/tensor"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to JSON config file")
		schema      = flag.Bool("schema", false, "Print the config JSON schema and exit")
		shapeFlag   = flag.String("shape", "2,3", "Shape of the sample tensor (comma-separated)")
		dtypeFlag   = flag.String("dtype", "float32", "Data type of the sample tensor")
		interactive = flag.Bool("i", false, "Interactive heap inspector")
	)
	flag.Parse()

	if *schema {
		out, err := config.Schema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	if err := run(*configFile, *shapeFlag, *dtypeFlag, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, shapeStr, dtypeStr string, interactive bool) error {
	ctx := context.Background()

	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}

	shape, err := tensor.ParseShape(shapeStr)
	if err != nil {
		return err
	}
	dtype, err := tensor.ParseDType(dtypeStr)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	bridge.SetLogger(logger)

	s, err := openSession(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer s.Close()

	samples, err := s.seed(shape, dtype)
	if err != nil {
		return fmt.Errorf("seed heap: %w", err)
	}

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode requires a terminal")
		}
		return runInteractive(s)
	}

	fmt.Printf("Module: %s\n", s.host.Name())
	fmt.Printf("Tensor type: %s (id %d)\n\n", s.bridge.TypeName(), s.bridge.TypeID())

	for _, smp := range samples {
		if err := report(s, smp); err != nil {
			return err
		}
	}

	fmt.Println(heapTable(s.objects()))
	return nil
}

var labelStyle = lipgloss.NewStyle().Bold(true)

func report(s *session, smp sample) error {
	fmt.Println(labelStyle.Render(fmt.Sprintf("#%d %s", smp.handle, smp.name)))

	ok, err := s.bridge.IsTensor(native.Borrow(smp.handle))
	if err != nil {
		return err
	}
	fmt.Printf("  is tensor:  %v\n", ok)

	res, err := s.call("is-tensor", uint64(smp.handle))
	if err != nil {
		return err
	}
	fmt.Printf("  is-tensor:  %d\n", api.DecodeI32(res[0]))

	v, err := bridge.Extract(s.bridge, native.Borrow(smp.handle))
	if err != nil {
		fmt.Printf("  extract:    %v\n", err)
	} else {
		out := v.Inject(s.bridge)
		fmt.Printf("  extract:    %s\n", v)
		fmt.Printf("  inject:     #%d (same storage: %v)\n", out.Handle(), sameStorage(s, smp, out))
		v.Release()
		if err := out.Release(s.heap); err != nil {
			return err
		}
	}

	res, err = s.call("numel", uint64(smp.handle))
	if err != nil {
		return err
	}
	kind, err := s.call("error-kind")
	if err != nil {
		return err
	}
	fmt.Printf("  numel:      %d (error kind %d)\n\n", int64(res[0]), api.DecodeI32(kind[0]))
	if _, err := s.call("clear-error"); err != nil {
		return err
	}
	return nil
}

func sameStorage(s *session, smp sample, out native.Owned) bool {
	res, err := s.call("same-storage", uint64(smp.handle), uint64(out.Handle()))
	if err != nil {
		s.logger.Warn("same-storage", zap.Error(err))
		return false
	}
	return res[0] == 1
}

func heapTable(rows []objectRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("HANDLE", "TYPE", "REFS", "VALUE")
	for _, r := range rows {
		t.Row(strconv.Itoa(int(r.handle)), r.typ, strconv.Itoa(int(r.refs)), r.value)
	}
	return t.String()
}
