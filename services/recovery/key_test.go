package recovery

import "testing"

func TestParseChannel(t *testing.T) {
	cases := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{"email", ChannelEmail, false},
		{"sms", ChannelSMS, false},
		{"whatsapp", ChannelWhatsApp, false},
		{"  Email ", ChannelEmail, false},
		{"SMS", ChannelSMS, false},
		{"", "", true},
		{"telegram", "", true},
	}
	for _, c := range cases {
		got, err := ParseChannel(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseChannel(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ParseChannel(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}

func TestNormalizeAccountID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12345678901", "12345678901", false},
		{"123.456.789-01", "12345678901", false},
		{" 123 456 ", "123456", false},
		{"abc", "", true},
		{"", "", true},
		{"123456789012345678901", "", true}, // 21 digits
	}
	for _, c := range cases {
		got, err := NormalizeAccountID(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizeAccountID(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("NormalizeAccountID(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}

func TestCompositeKeyString(t *testing.T) {
	key := CompositeKey{AccountID: "123", Channel: ChannelWhatsApp}
	if key.String() != "123:whatsapp" {
		t.Errorf("Unexpected key string %q", key.String())
	}
}
