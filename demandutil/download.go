/*
Copyright © 2026 the PlanWise authors.
This file is part of PlanWise.

PlanWise is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PlanWise is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PlanWise.  If not, see <http://www.gnu.org/licenses/>.
*/

package demandutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// downloads makes remote grids available locally. Everything it fetches is
// kept under one temporary directory, which Close removes.
type downloads struct {
	ctx context.Context
	dir string
}

func newDownloads(ctx context.Context) *downloads {
	return &downloads{ctx: ctx}
}

// Close removes all downloaded grids.
func (d *downloads) Close() error {
	if d.dir == "" {
		return nil
	}
	err := os.RemoveAll(d.dir)
	d.dir = ""
	return err
}

// maybeDownload returns location unchanged if it is an existing local file
// or not a URL. Grids at http(s) URLs or in blob storage are downloaded to
// the temporary directory and the path of the downloaded file is returned.
func (d *downloads) maybeDownload(location string) (string, error) {
	if _, err := os.Stat(location); !os.IsNotExist(err) {
		return location, nil
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return d.downloadHTTP(location)
	}
	if IsBlob(location) {
		return d.downloadBlob(location)
	}
	return location, nil
}

// dest creates the local file a download of location is written to. Each
// download gets its own subdirectory so that grids with the same base name
// do not overwrite each other.
func (d *downloads) dest(location string) (*os.File, error) {
	if d.dir == "" {
		dir, err := ioutil.TempDir("", "planwise")
		if err != nil {
			return nil, fmt.Errorf("planwise: failed creating temporary download directory: %v", err)
		}
		d.dir = dir
	}
	dir, err := ioutil.TempDir(d.dir, "grid")
	if err != nil {
		return nil, fmt.Errorf("planwise: failed creating temporary download directory: %v", err)
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("planwise: invalid location %s: %v", location, err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "grid.tif"
	}
	return os.Create(filepath.Join(dir, name))
}

// downloadHTTP downloads a grid from the specified URL.
func (d *downloads) downloadHTTP(location string) (string, error) {
	logrus.WithField("url", location).Debug("downloading grid")
	resp, err := http.Get(location)
	if err != nil {
		return "", fmt.Errorf("planwise: downloading %s: %v", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("planwise: downloading %s: %s", location, resp.Status)
	}
	return d.save(location, resp.Body)
}

func (d *downloads) save(location string, r io.Reader) (string, error) {
	w, err := d.dest(location)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("planwise: downloading %s: %v", location, err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("planwise: downloading %s: %v", location, err)
	}
	return w.Name(), nil
}

// IsBlob returns whether the given location represents a blob
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(location string) bool {
	return strings.HasPrefix(location, "gs://") || strings.HasPrefix(location, "s3://") || strings.HasPrefix(location, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("planwise: opening bucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("planwise: invalid storage provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s := session.Must(session.NewSession(c))
	return s3blob.OpenBucket(ctx, s, name)
}

// downloadBlob downloads the specified grid from blob storage.
func (d *downloads) downloadBlob(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("planwise: invalid location %s: %v", location, err)
	}
	bucket, err := OpenBucket(d.ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", err
	}
	logrus.WithField("blob", location).Debug("downloading grid")
	r, err := bucket.NewReader(d.ctx, strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return "", fmt.Errorf("planwise: reading %s: %v", location, err)
	}
	defer r.Close()
	return d.save(location, r)
}
