//go:build openjpeg && cgo

package tokens

/*
#cgo pkg-config: libopenjp2
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <openjpeg.h>

typedef struct {
	uint8_t *data;
	size_t length;
	size_t offset;
} piscan_jp2_buffer;

static void piscan_jp2_buffer_free(void *user_data) {
	piscan_jp2_buffer *buffer = (piscan_jp2_buffer*)user_data;
	if (!buffer) {
		return;
	}
	free(buffer->data);
	free(buffer);
}

static piscan_jp2_buffer* piscan_jp2_buffer_new(uint8_t *data, size_t len) {
	piscan_jp2_buffer *buffer = (piscan_jp2_buffer*)malloc(sizeof(piscan_jp2_buffer));
	if (!buffer) {
		return NULL;
	}
	buffer->data = data;
	buffer->length = len;
	buffer->offset = 0;
	return buffer;
}

static OPJ_SIZE_T piscan_jp2_read(void *dst, OPJ_SIZE_T nb_bytes, void *user_data) {
	piscan_jp2_buffer *buffer = (piscan_jp2_buffer*)user_data;
	size_t remaining = buffer->length - buffer->offset;
	if (remaining == 0) {
		return (OPJ_SIZE_T)-1;
	}
	if ((size_t)nb_bytes > remaining) {
		nb_bytes = (OPJ_SIZE_T)remaining;
	}
	memcpy(dst, buffer->data + buffer->offset, (size_t)nb_bytes);
	buffer->offset += (size_t)nb_bytes;
	return nb_bytes;
}

static OPJ_OFF_T piscan_jp2_skip(OPJ_OFF_T nb_bytes, void *user_data) {
	piscan_jp2_buffer *buffer = (piscan_jp2_buffer*)user_data;
	if (nb_bytes <= 0) {
		return 0;
	}
	size_t remaining = buffer->length - buffer->offset;
	size_t request = (size_t)nb_bytes;
	if (request > remaining) {
		request = remaining;
	}
	buffer->offset += request;
	return (OPJ_OFF_T)request;
}

static OPJ_BOOL piscan_jp2_seek(OPJ_OFF_T nb_bytes, void *user_data) {
	piscan_jp2_buffer *buffer = (piscan_jp2_buffer*)user_data;
	if (nb_bytes < 0 || (size_t)nb_bytes > buffer->length) {
		return OPJ_FALSE;
	}
	buffer->offset = (size_t)nb_bytes;
	return OPJ_TRUE;
}

// The stream owns buffer once created.
static opj_stream_t* piscan_jp2_stream_new(piscan_jp2_buffer *buffer) {
	opj_stream_t *stream = opj_stream_create(OPJ_J2K_STREAM_CHUNK_SIZE, OPJ_TRUE);
	if (!stream) {
		return NULL;
	}
	opj_stream_set_user_data(stream, buffer, piscan_jp2_buffer_free);
	opj_stream_set_user_data_length(stream, buffer->length);
	opj_stream_set_read_function(stream, piscan_jp2_read);
	opj_stream_set_skip_function(stream, piscan_jp2_skip);
	opj_stream_set_seek_function(stream, piscan_jp2_seek);
	return stream;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"unsafe"
)

const jp2Supported = true

func init() {
	image.RegisterFormat("jp2", "\x00\x00\x00\x0cjP  \r\n\x87\n", decodeJP2, decodeJP2Config)
	image.RegisterFormat("j2k", "\xff\x4f\xff\x51", decodeJ2K, decodeJ2KConfig)
}

func decodeJP2(r io.Reader) (image.Image, error) {
	return decodeOpenJPEG(r, C.OPJ_CODEC_JP2)
}

func decodeJ2K(r io.Reader) (image.Image, error) {
	return decodeOpenJPEG(r, C.OPJ_CODEC_J2K)
}

func decodeJP2Config(r io.Reader) (image.Config, error) {
	return configOpenJPEG(r, C.OPJ_CODEC_JP2)
}

func decodeJ2KConfig(r io.Reader) (image.Config, error) {
	return configOpenJPEG(r, C.OPJ_CODEC_J2K)
}

// configOpenJPEG decodes the full image. Pages are read once, so a
// header-only path has no caller worth the extra C.
func configOpenJPEG(r io.Reader, codec C.OPJ_CODEC_FORMAT) (image.Config, error) {
	img, err := decodeOpenJPEG(r, codec)
	if err != nil {
		return image.Config{}, err
	}
	b := img.Bounds()
	return image.Config{ColorModel: img.ColorModel(), Width: b.Dx(), Height: b.Dy()}, nil
}

func decodeOpenJPEG(r io.Reader, codecFormat C.OPJ_CODEC_FORMAT) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tokens: jp2 read: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("tokens: jp2 stream empty")
	}

	cBuf := C.CBytes(data)
	buffer := C.piscan_jp2_buffer_new((*C.uint8_t)(cBuf), C.size_t(len(data)))
	if buffer == nil {
		C.free(cBuf)
		return nil, errors.New("tokens: jp2 buffer allocation failed")
	}
	stream := C.piscan_jp2_stream_new(buffer)
	if stream == nil {
		C.piscan_jp2_buffer_free(unsafe.Pointer(buffer))
		return nil, errors.New("tokens: jp2 stream allocation failed")
	}
	defer C.opj_stream_destroy(stream)

	codec := C.opj_create_decompress(codecFormat)
	if codec == nil {
		return nil, errors.New("tokens: jp2 codec allocation failed")
	}
	defer C.opj_destroy_codec(codec)

	var params C.opj_dparameters_t
	C.opj_set_default_decoder_parameters(&params)
	if C.opj_setup_decoder(codec, &params) == 0 {
		return nil, errors.New("tokens: jp2 decoder setup failed")
	}

	var img *C.opj_image_t
	if C.opj_read_header(stream, codec, &img) == 0 || img == nil {
		return nil, errors.New("tokens: jp2 header decode failed")
	}
	defer C.opj_image_destroy(img)

	if C.opj_decode(codec, stream, img) == 0 {
		return nil, errors.New("tokens: jp2 decode failed")
	}
	if C.opj_end_decompress(codec, stream) == 0 {
		return nil, errors.New("tokens: jp2 finalize failed")
	}
	return convertOpenJPEG(img)
}

type jp2Component struct {
	samples   []C.OPJ_INT32
	precision uint
	signed    bool
}

// at returns sample i scaled to 8 bits.
func (c jp2Component) at(i int) uint8 {
	v := int64(c.samples[i])
	if c.signed {
		v += 1 << (c.precision - 1)
	}
	switch {
	case c.precision > 8:
		v >>= c.precision - 8
	case c.precision < 8:
		v = v * 255 / (1<<c.precision - 1)
	}
	return clamp8(v)
}

func clamp8(v int64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// convertOpenJPEG copies the decoded planes into a Go image. Gray pages
// become image.Gray, everything else image.NRGBA.
func convertOpenJPEG(img *C.opj_image_t) (image.Image, error) {
	width := int(img.x1) - int(img.x0)
	height := int(img.y1) - int(img.y0)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tokens: jp2 image has empty bounds %dx%d", width, height)
	}
	n := int(img.numcomps)
	if n == 0 {
		return nil, errors.New("tokens: jp2 image has no components")
	}

	comps := make([]jp2Component, n)
	for i, comp := range unsafe.Slice(img.comps, n) {
		if int(comp.w) != width || int(comp.h) != height || comp.data == nil {
			return nil, fmt.Errorf("tokens: jp2 component %d is subsampled (%dx%d on %dx%d)",
				i, comp.w, comp.h, width, height)
		}
		if comp.prec == 0 || comp.prec > 31 {
			return nil, fmt.Errorf("tokens: jp2 component %d has precision %d", i, comp.prec)
		}
		comps[i] = jp2Component{
			samples:   unsafe.Slice(comp.data, width*height),
			precision: uint(comp.prec),
			signed:    comp.sgnd != 0,
		}
	}

	rect := image.Rect(0, 0, width, height)
	if n < 3 {
		gray := image.NewGray(rect)
		for i := range gray.Pix {
			gray.Pix[i] = comps[0].at(i)
		}
		return gray, nil
	}

	ycc := img.color_space == C.OPJ_CLRSPC_SYCC || img.color_space == C.OPJ_CLRSPC_EYCC
	rgba := image.NewNRGBA(rect)
	for i := 0; i < width*height; i++ {
		r, g, b := comps[0].at(i), comps[1].at(i), comps[2].at(i)
		if ycc {
			r, g, b = color.YCbCrToRGB(r, g, b)
		}
		a := uint8(255)
		if n > 3 {
			a = comps[3].at(i)
		}
		rgba.Pix[i*4+0] = r
		rgba.Pix[i*4+1] = g
		rgba.Pix[i*4+2] = b
		rgba.Pix[i*4+3] = a
	}
	return rgba, nil
}
