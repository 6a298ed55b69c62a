package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/dns/dnsmessage"

	"github.com/haukened/fwd-dns/internal/dns/domain"
)

// codecraftersQuery is a single A/IN question for codecrafters.io with ID 4922.
var codecraftersQuery = []byte{
	19, 58, 1, 0, 0, 1, 0, 0, 0, 0, 0, 0,
	12, 'c', 'o', 'd', 'e', 'c', 'r', 'a', 'f', 't', 'e', 'r', 's',
	2, 'i', 'o', 0,
	0, 1, 0, 1,
}

func codecraftersName() domain.Name {
	return domain.Name{12, 'c', 'o', 'd', 'e', 'c', 'r', 'a', 'f', 't', 'e', 'r', 's', 2, 'i', 'o', 0}
}

func TestDecodeMessage_SingleQuestion(t *testing.T) {
	msg, err := DecodeMessage(codecraftersQuery)
	require.NoError(t, err)

	assert.Equal(t, uint16(4922), msg.Header.ID)
	assert.True(t, msg.Header.RD)
	assert.False(t, msg.Header.QR)
	require.Len(t, msg.Questions, 1)
	assert.Equal(t, codecraftersName(), msg.Questions[0].Name)
	assert.Equal(t, domain.RRTypeA, msg.Questions[0].Type)
	assert.Equal(t, domain.RRClassIN, msg.Questions[0].Class)
	assert.Empty(t, msg.Answers)
}

func TestEncodeMessage_SyntheticResponse(t *testing.T) {
	msg, err := DecodeMessage(codecraftersQuery)
	require.NoError(t, err)
	require.NoError(t, msg.SetAnswers(msg.SyntheticAnswers()))

	out, err := EncodeMessage(msg)
	require.NoError(t, err)

	want := append([]byte{}, codecraftersQuery...)
	want[2] = 0x81 // QR + RD
	want[7] = 1    // ANCOUNT
	want = append(want, codecraftersName()...)
	want = append(want, 0, 1, 0, 1, 0, 0, 0, 40, 0, 4, 8, 8, 8, 8)
	assert.Equal(t, want, out)

	back, err := DecodeMessage(out)
	require.NoError(t, err)
	assert.True(t, back.Header.QR)
	assert.Equal(t, uint16(1), back.Header.ANCount)
	require.Len(t, back.Answers, 1)
	a := back.Answers[0]
	assert.Equal(t, codecraftersName(), a.Name)
	assert.Equal(t, domain.RRTypeA, a.Type)
	assert.Equal(t, domain.RRClassIN, a.Class)
	assert.Equal(t, uint32(40), a.TTL)
	assert.Equal(t, []byte{8, 8, 8, 8}, a.Data)
}

func TestDecodeMessage_MultipleQuestionsSequential(t *testing.T) {
	data := []byte{0, 9, 1, 0, 0, 2, 0, 0, 0, 0, 0, 0}
	data = append(data, 3, 'a', 'b', 'c', 0, 0, 1, 0, 1)
	// second question compresses onto the first name
	data = append(data, 3, 'd', 'e', 'f', 0xC0, 12, 0, 28, 0, 1)

	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Len(t, msg.Questions, 2)
	assert.Equal(t, domain.MustName("abc"), msg.Questions[0].Name)
	assert.Equal(t, domain.MustName("def.abc"), msg.Questions[1].Name)
	assert.Equal(t, domain.RRTypeAAAA, msg.Questions[1].Type)
}

func TestDecodeMessage_NonStandardOpcode(t *testing.T) {
	data := append([]byte{}, codecraftersQuery...)
	data[2] = 0x11 // OPCODE=2, RD

	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, domain.OpcodeStatus, msg.Header.Opcode)
	assert.Equal(t, domain.RCodeNotImp, msg.Header.RCode)
	assert.Len(t, msg.Questions, 1)
}

func TestDecodeMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"short header", codecraftersQuery[:11], "header needs 12 bytes"},
		{"missing question", codecraftersQuery[:12], "question 0"},
		{"truncated question", codecraftersQuery[:len(codecraftersQuery)-1], "QTYPE/QCLASS"},
		{"claimed answer missing", func() []byte {
			d := append([]byte{}, codecraftersQuery...)
			d[7] = 1
			return d
		}(), "answer 0"},
		{"huge counts", []byte{0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, "question 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrParse)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEncodeMessage_CountsFollowSections(t *testing.T) {
	msg := &domain.Message{
		Header: domain.Header{ID: 1, QDCount: 7, ANCount: 7, NSCount: 3, ARCount: 1},
		Questions: []domain.Question{
			{Name: domain.MustName("a.test"), Type: domain.RRTypeA, Class: domain.RRClassIN},
		},
	}

	out, err := EncodeMessage(msg)
	require.NoError(t, err)

	h, err := DecodeHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), h.QDCount)
	assert.Equal(t, uint16(0), h.ANCount)
	assert.Equal(t, uint16(0), h.NSCount)
	assert.Equal(t, uint16(0), h.ARCount)
	// the in-memory header is left alone
	assert.Equal(t, uint16(7), msg.Header.QDCount)
}

func TestEncodeMessage_Errors(t *testing.T) {
	t.Run("bad answer", func(t *testing.T) {
		msg := &domain.Message{Answers: []domain.Answer{{Name: domain.MustName("x"), Length: 2}}}
		_, err := EncodeMessage(msg)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSerialization)
		assert.Contains(t, err.Error(), "answer 0")
	})
	t.Run("bad question", func(t *testing.T) {
		msg := &domain.Message{Questions: []domain.Question{{}}}
		_, err := EncodeMessage(msg)
		assert.ErrorIs(t, err, domain.ErrSerialization)
	})
}

// The tests below cross-check the codec against golang.org/x/net/dns/dnsmessage.

func TestDecodeMessage_CompressedReplyFromReferenceEncoder(t *testing.T) {
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{ID: 42, Response: true, RecursionDesired: true, RecursionAvailable: true})
	b.EnableCompression()
	require.NoError(t, b.StartQuestions())
	require.NoError(t, b.Question(dnsmessage.Question{
		Name:  dnsmessage.MustNewName("example.com."),
		Type:  dnsmessage.TypeA,
		Class: dnsmessage.ClassINET,
	}))
	require.NoError(t, b.StartAnswers())
	require.NoError(t, b.AResource(dnsmessage.ResourceHeader{
		Name:  dnsmessage.MustNewName("example.com."),
		Class: dnsmessage.ClassINET,
		TTL:   300,
	}, dnsmessage.AResource{A: [4]byte{93, 184, 216, 34}}))
	require.NoError(t, b.AResource(dnsmessage.ResourceHeader{
		Name:  dnsmessage.MustNewName("www.example.com."),
		Class: dnsmessage.ClassINET,
		TTL:   60,
	}, dnsmessage.AResource{A: [4]byte{10, 0, 0, 1}}))
	data, err := b.Finish()
	require.NoError(t, err)

	msg, err := DecodeMessage(data)
	require.NoError(t, err)

	assert.Equal(t, uint16(42), msg.Header.ID)
	assert.True(t, msg.Header.QR)
	assert.True(t, msg.Header.RA)
	require.Len(t, msg.Answers, 2)
	assert.Equal(t, domain.MustName("example.com"), msg.Answers[0].Name)
	assert.Equal(t, uint32(300), msg.Answers[0].TTL)
	assert.Equal(t, []byte{93, 184, 216, 34}, msg.Answers[0].Data)
	assert.Equal(t, domain.MustName("www.example.com"), msg.Answers[1].Name)
	assert.Equal(t, []byte{10, 0, 0, 1}, msg.Answers[1].Data)
}

func TestEncodeMessage_ParsesWithReferenceDecoder(t *testing.T) {
	msg, err := DecodeMessage(codecraftersQuery)
	require.NoError(t, err)
	require.NoError(t, msg.SetAnswers(msg.SyntheticAnswers()))
	msg.Header.RA = true

	out, err := EncodeMessage(msg)
	require.NoError(t, err)

	var p dnsmessage.Parser
	h, err := p.Start(out)
	require.NoError(t, err)
	assert.Equal(t, uint16(4922), h.ID)
	assert.True(t, h.Response)
	assert.True(t, h.RecursionDesired)
	assert.True(t, h.RecursionAvailable)

	questions, err := p.AllQuestions()
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "codecrafters.io.", questions[0].Name.String())

	answers, err := p.AllAnswers()
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, uint32(40), answers[0].Header.TTL)
	body, ok := answers[0].Body.(*dnsmessage.AResource)
	require.True(t, ok)
	assert.Equal(t, [4]byte{8, 8, 8, 8}, body.A)
}
