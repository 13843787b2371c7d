package main

import (
	"context"
	"fmt"
	"path"

	"dagger/botconsole/internal/dagger"
)

// artifactRoot is the directory inside the bucket all botconsole builds live under.
const artifactRoot = "botconsole"

// bucket holds the S3-compatible destination for release artifacts.
type bucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyId     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// withChecksums adds a SHA256SUMS file covering every binary in artifacts.
func withChecksums(artifacts *dagger.Directory) *dagger.Directory {
	return dag.Container().
		From("alpine:3").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts").
		WithExec([]string{"sh", "-c", "find . -type f ! -name SHA256SUMS | sort | xargs sha256sum > SHA256SUMS"}).
		Directory("/artifacts")
}

// publish syncs artifacts to every prefix under artifactRoot.
func (b *Botconsole) publish(
	ctx context.Context,
	dest bucket,
	artifacts *dagger.Directory,
	prefixes ...string,
) error {
	name, err := dest.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket name: %w", err)
	}

	endpointUrl, err := dest.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get endpoint: %w", err)
	}

	awsCli := dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", dest.accessKeyId).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", dest.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts")

	for _, prefix := range prefixes {
		destination := "s3://" + path.Join(name, artifactRoot, prefix)
		_, err := awsCli.
			WithExec([]string{"aws", "s3", "sync", ".", destination, "--endpoint-url", endpointUrl}).
			Sync(ctx)
		if err != nil {
			return fmt.Errorf("failed to upload artifacts to %s: %w", prefix, err)
		}
	}

	return nil
}

// ReleaseLatest builds release binaries and uploads them under the version
// and under "latest".
func (b *Botconsole) ReleaseLatest(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := withChecksums(b.BuildRelease(ctx, version, commit))
	dest := bucket{endpoint: endpoint, name: bucketName, accessKeyId: accessKeyId, secretAccessKey: secretAccessKey}

	if err := b.publish(ctx, dest, artifacts, version, "latest"); err != nil {
		return artifacts, fmt.Errorf("could not upload release artifacts: %w", err)
	}
	return artifacts, nil
}

// Nightly builds and uploads nightly artifacts
func (b *Botconsole) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := withChecksums(b.BuildRelease(ctx, "nightly", commit))
	dest := bucket{endpoint: endpoint, name: bucketName, accessKeyId: accessKeyId, secretAccessKey: secretAccessKey}

	return artifacts, b.publish(ctx, dest, artifacts, "nightly")
}
