// Command docvault encrypts and decrypts files with a password using the
// document-vault crypto core. Metadata needed for decryption is written to
// a JSON sidecar next to the ciphertext.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	vault "github.com/aryasadawrate19/document-vault"
	"golang.org/x/term"
)

// PasswordEnvVar names the environment variable consulted before prompting.
const PasswordEnvVar = "DOCVAULT_PASSWORD"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "encrypt":
		runEncrypt(ctx, os.Args[2:])
	case "decrypt":
		runDecrypt(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: docvault <command> [flags]

Commands:
  encrypt   Encrypt a file (-in, -out, -meta, -stream)
  decrypt   Decrypt a file (-in, -out, -meta, -stream)

The password is read from `+PasswordEnvVar+` or prompted for.`)
}

func runEncrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	in := fs.String("in", "", "input file to encrypt")
	out := fs.String("out", "", "output path for the ciphertext")
	metaPath := fs.String("meta", "", "output path for the metadata sidecar (default: <out>.meta.json)")
	stream := fs.Bool("stream", false, "use the bounded-memory streaming pipeline")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "Error: -in and -out are required")
		os.Exit(1)
	}
	if *metaPath == "" {
		*metaPath = *out + ".meta.json"
	}

	password := getPassword("Enter password: ", true)
	defer vault.Wipe(password)

	v := vault.NewOS()
	opts := vault.EncryptOptions{Password: string(password)}

	var (
		meta *vault.EncryptionMetadata
		err  error
	)
	if *stream {
		meta, err = v.EncryptFileStream(ctx, *in, *out, opts, progressPrinter())
		fmt.Fprintln(os.Stderr)
	} else {
		meta, err = v.EncryptFile(*in, *out, opts)
	}
	if err != nil {
		handleError(err)
	}

	if err := writeMetadata(*metaPath, meta); err != nil {
		handleError(err)
	}
	fmt.Printf("Encrypted %s -> %s (metadata: %s)\n", *in, *out, *metaPath)
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	in := fs.String("in", "", "encrypted input file")
	out := fs.String("out", "", "output path for the plaintext")
	metaPath := fs.String("meta", "", "path to the metadata sidecar (default: <in>.meta.json)")
	stream := fs.Bool("stream", false, "input was produced by the streaming pipeline")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "Error: -in and -out are required")
		os.Exit(1)
	}
	if *metaPath == "" {
		*metaPath = *in + ".meta.json"
	}

	meta, err := readMetadata(*metaPath)
	if err != nil {
		handleError(err)
	}

	password := getPassword("Enter password: ", false)
	defer vault.Wipe(password)

	v := vault.NewOS()

	var result *vault.FileDecryptResult
	if *stream {
		result, err = v.DecryptFileStream(ctx, *in, *out, meta, string(password), progressPrinter())
		fmt.Fprintln(os.Stderr)
	} else {
		result, err = v.DecryptFile(*in, *out, meta, string(password))
	}
	if err != nil {
		handleError(err)
	}

	fmt.Printf("Decrypted %s -> %s (%d bytes, %s)\n",
		*in, result.OutputPath, result.Size, result.MimeType)
}

// getPassword reads the password from the environment or prompts without
// echo, confirming it when encrypting.
func getPassword(prompt string, confirm bool) []byte {
	if env := os.Getenv(PasswordEnvVar); env != "" {
		return []byte(env)
	}

	password, err := promptPassword(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read password: %v\n", err)
		os.Exit(1)
	}

	if confirm {
		again, err := promptPassword("Confirm password: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read password: %v\n", err)
			os.Exit(1)
		}
		match := len(password) == len(again) && string(password) == string(again)
		vault.Wipe(again)
		if !match {
			vault.Wipe(password)
			fmt.Fprintln(os.Stderr, "Error: passwords do not match")
			os.Exit(1)
		}
	}
	return password
}

func promptPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	return password, err
}

// progressPrinter reports streaming progress on stderr.
func progressPrinter() vault.ProgressFunc {
	return func(processed, total int64) {
		if total <= 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r%3d%% (%d/%d bytes)", processed*100/total, processed, total)
	}
}

func writeMetadata(path string, meta *vault.EncryptionMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readMetadata(path string) (*vault.EncryptionMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := &vault.EncryptionMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("invalid metadata file %s: %w", path, err)
	}
	return meta, nil
}

// handleError reports an error through the taxonomy and exits.
func handleError(err error) {
	switch vault.Classify(err) {
	case vault.CodeWrongPassword:
		fmt.Fprintln(os.Stderr, "Error: wrong password or corrupted data")
	case vault.CodeIntegrityCheckFailed:
		fmt.Fprintln(os.Stderr, "Error: integrity check failed - the data has been tampered with")
	case vault.CodeUnsupportedVersion:
		fmt.Fprintln(os.Stderr, "Error: this file was encrypted with an unsupported format version")
	case vault.CodeMissingFields, vault.CodeInvalidFormat:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	case vault.CodeFileError:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
