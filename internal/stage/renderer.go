package stage

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Font atlas geometry. The drawable set is rasterized at startup into a
// fixed grid of cells.
const (
	FontCols  = 16
	FontCellW = 8
	FontCellH = 14
	fontSize  = 12 // points at 72 DPI; leaves descender room in the cell
)

// fontGlyphs lists every rune the text pipeline can draw, in atlas order:
// printable ASCII plus the greek lowercase letters the key alphabet uses.
var fontGlyphs = func() []rune {
	gs := make([]rune, 0, 128)
	for ch := rune(32); ch <= 126; ch++ {
		gs = append(gs, ch)
	}
	for ch := 'α'; ch <= 'ω'; ch++ {
		gs = append(gs, ch)
	}
	return gs
}()

var fontIndex = func() map[rune]int {
	idx := make(map[rune]int, len(fontGlyphs))
	for i, ch := range fontGlyphs {
		idx[ch] = i
	}
	return idx
}()

// fontCell locates a rune's atlas cell.
func fontCell(ch rune) (column, row int, ok bool) {
	i, ok := fontIndex[ch]
	if !ok {
		return 0, 0, false
	}
	return i % FontCols, i / FontCols, true
}

// MaxSpriteRender caps a single DrawSprites/DrawGlowSprites upload.
const MaxSpriteRender = 16384

// glOffset converts a byte offset to unsafe.Pointer for GL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// Renderer owns the GL programs and streaming buffers for the three passes:
// alpha-blended shape sprites, additive glow sprites, and screen-space text.
type Renderer struct {
	spriteProg uint32
	spriteVAO  uint32
	spriteVBO  uint32
	spUView    int32
	spUResol   int32

	glowProg uint32
	glUView  int32
	glUResol int32

	fontTex      uint32
	atlasW       int
	atlasH       int
	textProg     uint32
	textVAO      uint32
	textVBO      uint32
	textURes     int32
	textUFontTex int32
	textBuf      []float32
}

func NewRenderer() (*Renderer, error) {
	spriteProg, err := linkProgram(spriteVertSrc, shapeFragSrc)
	if err != nil {
		return nil, fmt.Errorf("sprite program: %w", err)
	}
	glowProg, err := linkProgram(spriteVertSrc, glowFragSrc)
	if err != nil {
		gl.DeleteProgram(spriteProg)
		return nil, fmt.Errorf("glow program: %w", err)
	}

	r := &Renderer{spriteProg: spriteProg, glowProg: glowProg}

	// Sprite VAO/VBO: streaming buffer for point sprites.
	// Each sprite: 8 floats (x, y, size, r, g, b, a, rotation).
	var sVAO, sVBO uint32
	gl.GenVertexArrays(1, &sVAO)
	gl.GenBuffers(1, &sVBO)
	gl.BindVertexArray(sVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, sVBO)

	stride := int32(8 * 4)
	gl.BufferData(gl.ARRAY_BUFFER, MaxSpriteRender*int(stride), nil, gl.STREAM_DRAW)
	// aViewPos (vec2)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	// aSize (float)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, stride, glOffset(2*4))
	// aColor (vec4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(3*4))
	// aRotation (float)
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 1, gl.FLOAT, false, stride, glOffset(7*4))
	r.spriteVAO = sVAO
	r.spriteVBO = sVBO

	gl.UseProgram(spriteProg)
	r.spUView = gl.GetUniformLocation(spriteProg, gl.Str("uView\x00"))
	r.spUResol = gl.GetUniformLocation(spriteProg, gl.Str("uResolution\x00"))

	gl.UseProgram(glowProg)
	r.glUView = gl.GetUniformLocation(glowProg, gl.Str("uView\x00"))
	r.glUResol = gl.GetUniformLocation(glowProg, gl.Str("uResolution\x00"))

	if err := r.initFont(); err != nil {
		r.Destroy()
		return nil, err
	}

	gl.BindVertexArray(0)
	return r, nil
}

func (r *Renderer) Destroy() {
	for _, id := range []uint32{r.spriteVBO, r.textVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	for _, id := range []uint32{r.spriteVAO, r.textVAO} {
		if id != 0 {
			gl.DeleteVertexArrays(1, &id)
		}
	}
	for _, id := range []uint32{r.spriteProg, r.glowProg, r.textProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
	if r.fontTex != 0 {
		gl.DeleteTextures(1, &r.fontTex)
	}
}

// BeginFrame clears and binds the sprite program as the frame default.
func (r *Renderer) BeginFrame(fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(r.spriteProg)
	gl.BindVertexArray(r.spriteVAO)
}

// viewScale maps view units to pixels so the scene fills the framebuffer
// height regardless of window size.
func viewScale(fbH int) float32 {
	return float32(fbH) / 150.0
}

// DrawSprites renders alpha-blended point sprites.
// buf format: [x, y, size, r, g, b, a, rotation] * N (8 floats per sprite).
func (r *Renderer) DrawSprites(buf []float32, fbW, fbH int) {
	if len(buf) == 0 {
		return
	}
	count := len(buf) / 8
	if count > MaxSpriteRender {
		count = MaxSpriteRender
	}

	gl.UseProgram(r.spriteProg)
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)

	gl.Uniform1f(r.spUView, viewScale(fbH))
	gl.Uniform2f(r.spUResol, float32(fbW), float32(fbH))

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	gl.BufferData(gl.ARRAY_BUFFER, count*8*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(count))

	gl.Disable(gl.BLEND)
}

// DrawGlowSprites renders light sprites with additive blending and radial
// falloff. RGB values should be pre-multiplied by desired brightness.
func (r *Renderer) DrawGlowSprites(buf []float32, fbW, fbH int) {
	if len(buf) == 0 {
		return
	}
	count := len(buf) / 8
	if count > MaxSpriteRender {
		count = MaxSpriteRender
	}
	gl.UseProgram(r.glowProg)
	gl.BindVertexArray(r.spriteVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.spriteVBO)
	gl.Uniform1f(r.glUView, viewScale(fbH))
	gl.Uniform2f(r.glUResol, float32(fbW), float32(fbH))
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE)
	gl.BufferData(gl.ARRAY_BUFFER, count*8*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.Disable(gl.BLEND)
}

// initFont rasterizes the drawable glyph set into an atlas texture and sets
// up the text pipeline. No bundled asset; the atlas is built at startup from
// the Go Mono face, which carries the greek letters.
func (r *Renderer) initFont() error {
	otf, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	rows := (len(fontGlyphs) + FontCols - 1) / FontCols
	r.atlasW = FontCols * FontCellW
	r.atlasH = rows * FontCellH

	atlas := image.NewNRGBA(image.Rect(0, 0, r.atlasW, r.atlasH))
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  atlas,
		Src:  image.White,
		Face: face,
	}
	for i, ch := range fontGlyphs {
		column := i % FontCols
		row := i / FontCols
		d.Dot = fixed.P(column*FontCellW, row*FontCellH+ascent)
		d.DrawString(string(ch))
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8,
		int32(r.atlasW), int32(r.atlasH), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Pix))
	r.fontTex = tex

	prog, err := linkProgram(textVertSrc, textFragSrc)
	if err != nil {
		return fmt.Errorf("text program: %w", err)
	}
	r.textProg = prog
	gl.UseProgram(prog)
	r.textURes = gl.GetUniformLocation(prog, gl.Str("uResolution\x00"))
	r.textUFontTex = gl.GetUniformLocation(prog, gl.Str("uFontTex\x00"))
	gl.Uniform1i(r.textUFontTex, 2) // texture unit 2

	// Text VAO/VBO: per-vertex pos(2) + uv(2) + color(4) = 8 floats.
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)

	stride := int32(8 * 4)
	gl.BufferData(gl.ARRAY_BUFFER, 512*6*int(stride), nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0) // aPos
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	gl.EnableVertexAttribArray(1) // aUV
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, glOffset(2*4))
	gl.EnableVertexAttribArray(2) // aColor
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(4*4))

	r.textVAO = vao
	r.textVBO = vbo
	gl.BindVertexArray(0)
	return nil
}

// DrawChar queues one character as a textured quad in screen pixel space.
// Runes outside the atlas draw as "?" so a glyph never loses its character.
func (r *Renderer) DrawChar(ch rune, sx, sy, scale float32, col RGB, alpha float32) {
	if ch < 32 {
		return
	}
	column, row, ok := fontCell(ch)
	if !ok {
		column, row, _ = fontCell('?')
	}

	u0 := float32(column*FontCellW) / float32(r.atlasW)
	v0 := float32(row*FontCellH) / float32(r.atlasH)
	u1 := float32((column+1)*FontCellW) / float32(r.atlasW)
	v1 := float32((row+1)*FontCellH) / float32(r.atlasH)

	w := float32(FontCellW) * scale
	h := float32(FontCellH) * scale

	cr := float32(col.R) / 255.0
	cg := float32(col.G) / 255.0
	cb := float32(col.B) / 255.0

	// Two triangles: TL, TR, BL then TR, BR, BL.
	r.textBuf = append(r.textBuf,
		sx, sy, u0, v0, cr, cg, cb, alpha,
		sx+w, sy, u1, v0, cr, cg, cb, alpha,
		sx, sy+h, u0, v1, cr, cg, cb, alpha,
		sx+w, sy, u1, v0, cr, cg, cb, alpha,
		sx+w, sy+h, u1, v1, cr, cg, cb, alpha,
		sx, sy+h, u0, v1, cr, cg, cb, alpha,
	)
}

// DrawString queues a string at screen pixel position (sx, sy).
func (r *Renderer) DrawString(text string, sx, sy float32, scale float32, col RGB, alpha float32) {
	advance := float32(FontCellW) * scale
	x := sx
	for _, ch := range text {
		r.DrawChar(ch, x, sy, scale, col, alpha)
		x += advance
	}
}

// TextWidth returns the width in screen pixels of a string at given scale.
func TextWidth(text string, scale float32) float32 {
	n := 0
	for range text {
		n++
	}
	return float32(n*FontCellW) * scale
}

// FlushText draws all buffered text quads and clears the buffer.
func (r *Renderer) FlushText(fbW, fbH int) {
	if len(r.textBuf) == 0 {
		return
	}

	gl.UseProgram(r.textProg)
	gl.BindVertexArray(r.textVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.textVBO)

	gl.Uniform2f(r.textURes, float32(fbW), float32(fbH))

	gl.ActiveTexture(gl.TEXTURE2)
	gl.BindTexture(gl.TEXTURE_2D, r.fontTex)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	count := len(r.textBuf) / 8
	gl.BufferData(gl.ARRAY_BUFFER, len(r.textBuf)*4, gl.Ptr(r.textBuf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(count))

	gl.Disable(gl.BLEND)
	gl.ActiveTexture(gl.TEXTURE0)
	r.textBuf = r.textBuf[:0]
}
